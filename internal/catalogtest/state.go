package catalogtest

import "github.com/roach88/catshift/internal/catalog"

// State accessors used by test assertions. All return copies.

// Blueprint returns a stored blueprint by identifier.
func (s *Server) Blueprint(id string) (catalog.Blueprint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.blueprints[id]
	return bp, ok
}

// BlueprintCount returns the number of stored blueprints.
func (s *Server) BlueprintCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blueprints)
}

// Entity returns a stored entity by blueprint and identifier.
func (s *Server) Entity(blueprint, id string) (catalog.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[blueprint][id]
	return e, ok
}

// Entities returns all entities of a blueprint in insertion order.
func (s *Server) Entities(blueprint string) []catalog.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entityList(blueprint)
}

// ScorecardCount returns the number of stored scorecards.
func (s *Server) ScorecardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scorecards)
}

// ActionCount returns the number of stored actions.
func (s *Server) ActionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

// TeamCount returns the number of stored teams.
func (s *Server) TeamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.teams)
}
