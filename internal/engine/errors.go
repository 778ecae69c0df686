package engine

import (
	"errors"
	"fmt"
	"strings"
)

// WriteError reports a write the remote service rejected with a non-2xx
// status. It carries enough context to be accumulated into the final
// report: which record, in which collection, and what the service said.
//
// WriteError is item-level by definition. Fatal conditions (authentication
// rejected, blueprint listing impossible) are plain errors that abort the
// run instead of being collected.
type WriteError struct {
	Collection string
	Identifier string
	Status     int
	Body       string
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("%s/%s: status %d: %s", e.Collection, e.Identifier, e.Status, strings.TrimSpace(e.Body))
}

// AsWriteError extracts a WriteError from an error chain.
func AsWriteError(err error) (*WriteError, bool) {
	var we *WriteError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// failure converts any item-level error into a report record. Rejections
// keep their remote status and body; transport errors keep their message.
func failure(collection, identifier string, err error) ItemFailure {
	if we, ok := AsWriteError(err); ok {
		return ItemFailure{
			Identifier: we.Identifier,
			Collection: we.Collection,
			Status:     we.Status,
			Body:       we.Body,
		}
	}
	return ItemFailure{
		Identifier: identifier,
		Collection: collection,
		Body:       err.Error(),
	}
}
