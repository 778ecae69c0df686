// Package catalogtest provides an in-memory fake of the catalog management
// API for tests, plus YAML tenant fixtures to seed it.
//
// The fake enforces the same referential rules that make the real service
// hard to talk to: blueprint writes are rejected when a relation target
// does not exist (so two-phase schema writes are actually exercised),
// entity writes are rejected when a related entity is missing unless stub
// auto-creation is requested, and deletes of referenced entities are
// rejected unless dependents are cascaded.
package catalogtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/roach88/catshift/internal/catalog"
)

// Token is the bearer token the fake issues for valid credentials.
const Token = "catalogtest-token"

// Default credentials accepted by a fresh Server.
const (
	ClientID     = "test-client"
	ClientSecret = "test-secret"
)

// Server is one fake tenant. All exported methods are safe for concurrent
// use; handlers take the same lock, so the fake is safe under the bulk
// executor's concurrency too.
type Server struct {
	mu sync.Mutex

	order       []string
	blueprints  map[string]catalog.Blueprint
	entities    map[string]map[string]catalog.Entity
	entityOrder map[string][]string
	scorecards  []catalog.Scorecard
	actions     []catalog.Action
	teams       []catalog.Team

	runScripts map[string][]string
	runs       map[string]*scriptedRun
	nextRun    int

	// failures maps record identifiers to a forced status; creates and
	// patches of those identifiers are rejected with it.
	failures map[string]int
}

type scriptedRun struct {
	statuses []string
	polls    int
}

// New creates an empty tenant.
func New() *Server {
	return &Server{
		blueprints:  make(map[string]catalog.Blueprint),
		entities:    make(map[string]map[string]catalog.Entity),
		entityOrder: make(map[string][]string),
		runScripts:  make(map[string][]string),
		runs:        make(map[string]*scriptedRun),
		failures:    make(map[string]int),
	}
}

// FailWrites forces every create or patch of the given identifier to be
// rejected with status. Used to simulate per-item server errors.
func (s *Server) FailWrites(identifier string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[identifier] = status
}

// ScriptRun sets the status sequence returned by successive polls of runs
// created for the given action. The last status repeats. Without a script,
// runs succeed on the first poll.
func (s *Server) ScriptRun(action string, statuses ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runScripts[action] = statuses
}

// Handler returns the HTTP handler implementing the API surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/access_token", s.handleAuth)
	mux.HandleFunc("GET /blueprints", s.authed(s.handleListBlueprints))
	mux.HandleFunc("POST /blueprints", s.authed(s.handleCreateBlueprint))
	mux.HandleFunc("PATCH /blueprints/{id}", s.authed(s.handlePatchBlueprint))
	mux.HandleFunc("GET /blueprints/{id}/entities", s.authed(s.handleListEntities))
	mux.HandleFunc("POST /blueprints/{id}/entities", s.authed(s.handleUpsertEntity))
	mux.HandleFunc("DELETE /blueprints/{id}/entities/{entity}", s.authed(s.handleDeleteEntity))
	mux.HandleFunc("POST /entities/search", s.authed(s.handleSearch))
	mux.HandleFunc("GET /scorecards", s.authed(s.handleListScorecards))
	mux.HandleFunc("POST /blueprints/{id}/scorecards", s.authed(s.handleCreateScorecard))
	mux.HandleFunc("GET /actions", s.authed(s.handleListActions))
	mux.HandleFunc("POST /blueprints/{id}/actions", s.authed(s.handleCreateAction))
	mux.HandleFunc("GET /teams", s.authed(s.handleListTeams))
	mux.HandleFunc("POST /teams", s.authed(s.handleCreateTeam))
	mux.HandleFunc("POST /blueprints/{id}/entities/{entity}/actions/{action}/runs", s.authed(s.handleCreateRun))
	mux.HandleFunc("GET /actions/runs/{run}", s.authed(s.handleGetRun))
	return mux
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		ClientID     string `json:"clientId"`
		ClientSecret string `json:"clientSecret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed credentials")
		return
	}
	if creds.ClientID != ClientID || creds.ClientSecret != ClientSecret {
		errorJSON(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": Token})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			errorJSON(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleListBlueprints(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]catalog.Blueprint, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.blueprints[id])
	}
	writeJSON(w, http.StatusOK, map[string]any{"blueprints": list})
}

func (s *Server) handleCreateBlueprint(w http.ResponseWriter, r *http.Request) {
	var bp catalog.Blueprint
	if err := json.NewDecoder(r.Body).Decode(&bp); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed blueprint")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failures[bp.Identifier]; ok {
		errorJSON(w, status, "injected failure")
		return
	}
	if _, exists := s.blueprints[bp.Identifier]; exists {
		errorJSON(w, http.StatusConflict, fmt.Sprintf("blueprint %q already exists", bp.Identifier))
		return
	}
	if missing := s.missingTargets(bp); missing != "" {
		errorJSON(w, http.StatusUnprocessableEntity, fmt.Sprintf("relation target %q not found", missing))
		return
	}
	s.blueprints[bp.Identifier] = bp
	s.order = append(s.order, bp.Identifier)
	writeJSON(w, http.StatusOK, map[string]any{"blueprint": bp})
}

func (s *Server) handlePatchBlueprint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var bp catalog.Blueprint
	if err := json.NewDecoder(r.Body).Decode(&bp); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed blueprint")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failures[id]; ok {
		errorJSON(w, status, "injected failure")
		return
	}
	if _, exists := s.blueprints[id]; !exists {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("blueprint %q not found", id))
		return
	}
	if missing := s.missingTargets(bp); missing != "" {
		errorJSON(w, http.StatusUnprocessableEntity, fmt.Sprintf("relation target %q not found", missing))
		return
	}
	bp.Identifier = id
	s.blueprints[id] = bp
	writeJSON(w, http.StatusOK, map[string]any{"blueprint": bp})
}

// missingTargets returns the first relation target that does not exist.
// Self references resolve against the blueprint being written.
func (s *Server) missingTargets(bp catalog.Blueprint) string {
	for _, rel := range bp.Relations {
		if rel.Target == bp.Identifier {
			continue
		}
		if _, ok := s.blueprints[rel.Target]; !ok {
			return rel.Target
		}
	}
	return ""
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blueprints[id]; !exists {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("blueprint %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": s.entityList(id)})
}

func (s *Server) entityList(blueprint string) []catalog.Entity {
	list := make([]catalog.Entity, 0, len(s.entityOrder[blueprint]))
	for _, eid := range s.entityOrder[blueprint] {
		list = append(list, s.entities[blueprint][eid])
	}
	return list
}

func (s *Server) handleUpsertEntity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	query := r.URL.Query()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "unreadable body")
		return
	}
	// The real service rejects an explicit null icon; absent is fine.
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(body, &shape); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed entity")
		return
	}
	if icon, ok := shape["icon"]; ok && string(icon) == "null" {
		errorJSON(w, http.StatusUnprocessableEntity, "icon must not be null")
		return
	}
	var e catalog.Entity
	if err := json.Unmarshal(body, &e); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed entity")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failures[e.Identifier]; ok {
		errorJSON(w, status, "injected failure")
		return
	}
	bp, exists := s.blueprints[id]
	if !exists {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("blueprint %q not found", id))
		return
	}

	for name, val := range e.Relations {
		rel, ok := bp.Relations[name]
		if !ok {
			errorJSON(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown relation %q", name))
			return
		}
		for _, target := range val.Identifiers {
			if _, ok := s.entities[rel.Target][target]; ok {
				continue
			}
			if query.Get("create_missing_related_entities") != "true" {
				errorJSON(w, http.StatusUnprocessableEntity,
					fmt.Sprintf("related entity %q of blueprint %q not found", target, rel.Target))
				return
			}
			s.insertEntity(rel.Target, catalog.Entity{Identifier: target, Blueprint: rel.Target})
		}
	}

	if _, ok := s.entities[id][e.Identifier]; ok && query.Get("upsert") != "true" {
		errorJSON(w, http.StatusConflict, fmt.Sprintf("entity %q already exists", e.Identifier))
		return
	}
	e.Blueprint = id
	s.insertEntity(id, e)
	writeJSON(w, http.StatusOK, map[string]any{"entity": e})
}

func (s *Server) insertEntity(blueprint string, e catalog.Entity) {
	if s.entities[blueprint] == nil {
		s.entities[blueprint] = make(map[string]catalog.Entity)
	}
	if _, ok := s.entities[blueprint][e.Identifier]; !ok {
		s.entityOrder[blueprint] = append(s.entityOrder[blueprint], e.Identifier)
	}
	s.entities[blueprint][e.Identifier] = e
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	eid := r.PathValue("entity")
	cascade := r.URL.Query().Get("delete_dependents") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[id][eid]; !ok {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("entity %q not found", eid))
		return
	}
	dependents := s.dependentsOf(id, eid)
	if len(dependents) > 0 && !cascade {
		errorJSON(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("entity %q still has %d dependents", eid, len(dependents)))
		return
	}
	s.deleteEntity(id, eid, cascade)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// dependentsOf finds entities whose relation values reference the given
// entity through a relation targeting its blueprint.
func (s *Server) dependentsOf(blueprint, entity string) [][2]string {
	var deps [][2]string
	for bpID, byID := range s.entities {
		bp := s.blueprints[bpID]
		for eid, e := range byID {
			for name, val := range e.Relations {
				if bp.Relations[name].Target != blueprint {
					continue
				}
				for _, target := range val.Identifiers {
					if target == entity && !(bpID == blueprint && eid == entity) {
						deps = append(deps, [2]string{bpID, eid})
					}
				}
			}
		}
	}
	return deps
}

func (s *Server) deleteEntity(blueprint, entity string, cascade bool) {
	if _, ok := s.entities[blueprint][entity]; !ok {
		return
	}
	delete(s.entities[blueprint], entity)
	order := s.entityOrder[blueprint]
	for i, eid := range order {
		if eid == entity {
			s.entityOrder[blueprint] = append(order[:i:i], order[i+1:]...)
			break
		}
	}
	if cascade {
		for _, dep := range s.dependentsOf(blueprint, entity) {
			s.deleteEntity(dep[0], dep[1], true)
		}
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q catalog.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed query")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []catalog.Entity
	for _, rule := range q.Rules {
		if rule.Property == "$blueprint" && rule.Operator == "=" {
			matched = append(matched, s.entityList(rule.Value)...)
		}
	}
	if matched == nil {
		matched = []catalog.Entity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": matched})
}

func (s *Server) handleListScorecards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"scorecards": append([]catalog.Scorecard{}, s.scorecards...)})
}

func (s *Server) handleCreateScorecard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var sc catalog.Scorecard
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed scorecard")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failures[sc.Identifier]; ok {
		errorJSON(w, status, "injected failure")
		return
	}
	if _, exists := s.blueprints[id]; !exists {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("blueprint %q not found", id))
		return
	}
	for _, existing := range s.scorecards {
		if existing.Blueprint == id && existing.Identifier == sc.Identifier {
			errorJSON(w, http.StatusConflict, fmt.Sprintf("scorecard %q already exists", sc.Identifier))
			return
		}
	}
	sc.Blueprint = id
	s.scorecards = append(s.scorecards, sc)
	writeJSON(w, http.StatusOK, map[string]any{"scorecard": sc})
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"actions": append([]catalog.Action{}, s.actions...)})
}

func (s *Server) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var a catalog.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed action")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failures[a.Identifier]; ok {
		errorJSON(w, status, "injected failure")
		return
	}
	if _, exists := s.blueprints[id]; !exists {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("blueprint %q not found", id))
		return
	}
	for _, existing := range s.actions {
		if existing.Blueprint == id && existing.Identifier == a.Identifier {
			errorJSON(w, http.StatusConflict, fmt.Sprintf("action %q already exists", a.Identifier))
			return
		}
	}
	a.Blueprint = id
	s.actions = append(s.actions, a)
	writeJSON(w, http.StatusOK, map[string]any{"action": a})
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"teams": append([]catalog.Team{}, s.teams...)})
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var team catalog.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed team")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failures[team.Name]; ok {
		errorJSON(w, status, "injected failure")
		return
	}
	for _, existing := range s.teams {
		if existing.Name == team.Name {
			errorJSON(w, http.StatusConflict, fmt.Sprintf("team %q already exists", team.Name))
			return
		}
	}
	s.teams = append(s.teams, team)
	writeJSON(w, http.StatusOK, map[string]any{"team": team})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	blueprint := r.PathValue("id")
	entity := r.PathValue("entity")
	action := r.PathValue("action")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blueprints[blueprint]; !exists {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("blueprint %q not found", blueprint))
		return
	}
	if _, ok := s.entities[blueprint][entity]; !ok {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("entity %q not found", entity))
		return
	}

	s.nextRun++
	runID := fmt.Sprintf("run-%d", s.nextRun)
	statuses := s.runScripts[action]
	if len(statuses) == 0 {
		statuses = []string{catalog.RunStatusSuccess}
	}
	s.runs[runID] = &scriptedRun{statuses: statuses}
	writeJSON(w, http.StatusOK, map[string]any{
		"run": catalog.ActionRun{ID: runID, Status: catalog.RunStatusInProgress},
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run")
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("run %q not found", runID))
		return
	}
	idx := run.polls
	if idx >= len(run.statuses) {
		idx = len(run.statuses) - 1
	}
	run.polls++
	writeJSON(w, http.StatusOK, map[string]any{
		"run": catalog.ActionRun{ID: runID, Status: run.statuses[idx]},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": strings.TrimSpace(message)})
}
