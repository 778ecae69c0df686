package catalog

import "golang.org/x/text/unicode/norm"

// NormalizeIdentifier returns the NFC form of a catalog identifier.
//
// Identifiers written through different tenants (or typed into plan files)
// may differ only in Unicode normalization form; the service treats them as
// distinct keys, so every local comparison goes through NFC first to avoid
// silently duplicating or missing a record.
func NormalizeIdentifier(id string) string {
	return norm.NFC.String(id)
}

// SameIdentifier compares two identifiers under NFC normalization.
func SameIdentifier(a, b string) bool {
	return NormalizeIdentifier(a) == NormalizeIdentifier(b)
}
