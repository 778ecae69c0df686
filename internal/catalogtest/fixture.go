package catalogtest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/catshift/internal/catalog"
)

// Fixture describes a tenant snapshot in YAML for seeding a fake source.
type Fixture struct {
	Blueprints []FixtureBlueprint `yaml:"blueprints"`
	Entities   []FixtureEntity    `yaml:"entities,omitempty"`
	Scorecards []FixtureScorecard `yaml:"scorecards,omitempty"`
	Actions    []FixtureAction    `yaml:"actions,omitempty"`
	Teams      []FixtureTeam      `yaml:"teams,omitempty"`
}

// FixtureBlueprint is a blueprint definition. Mirrors maps a mirror
// property name to its relation path.
type FixtureBlueprint struct {
	Identifier string                     `yaml:"identifier"`
	Title      string                     `yaml:"title,omitempty"`
	Relations  map[string]FixtureRelation `yaml:"relations,omitempty"`
	Mirrors    map[string]string          `yaml:"mirrors,omitempty"`
}

// FixtureRelation is one blueprint relation.
type FixtureRelation struct {
	Target   string `yaml:"target"`
	Many     bool   `yaml:"many,omitempty"`
	Required bool   `yaml:"required,omitempty"`
}

// FixtureEntity is one entity instance. Relation values are identifier
// lists; cardinality is taken from the blueprint definition at seed time.
type FixtureEntity struct {
	Blueprint  string              `yaml:"blueprint"`
	Identifier string              `yaml:"identifier"`
	Title      string              `yaml:"title,omitempty"`
	Icon       string              `yaml:"icon,omitempty"`
	Properties map[string]any      `yaml:"properties,omitempty"`
	Relations  map[string][]string `yaml:"relations,omitempty"`
}

// FixtureScorecard is one scorecard attached to a blueprint.
type FixtureScorecard struct {
	Blueprint  string `yaml:"blueprint"`
	Identifier string `yaml:"identifier"`
	Title      string `yaml:"title,omitempty"`
}

// FixtureAction is one action attached to a blueprint.
type FixtureAction struct {
	Blueprint  string `yaml:"blueprint"`
	Identifier string `yaml:"identifier"`
	Title      string `yaml:"title,omitempty"`
}

// FixtureTeam is one team.
type FixtureTeam struct {
	Name  string   `yaml:"name"`
	Users []string `yaml:"users,omitempty"`
}

// LoadFixture reads a fixture file with strict field checking, so a typo
// in a fixture fails the test instead of silently seeding nothing.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Seed loads the fixture into the server, bypassing the write validation a
// client would face. Blueprints seed first so entity cardinality resolves.
func (f *Fixture) Seed(s *Server) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fb := range f.Blueprints {
		bp := catalog.Blueprint{Identifier: fb.Identifier, Title: fb.Title}
		if len(fb.Relations) > 0 {
			bp.Relations = make(map[string]catalog.Relation, len(fb.Relations))
			for name, rel := range fb.Relations {
				bp.Relations[name] = catalog.Relation{
					Target:   rel.Target,
					Many:     rel.Many,
					Required: rel.Required,
				}
			}
		}
		if len(fb.Mirrors) > 0 {
			bp.MirrorProperties = make(map[string]catalog.MirrorProperty, len(fb.Mirrors))
			for name, path := range fb.Mirrors {
				bp.MirrorProperties[name] = catalog.MirrorProperty{Path: path}
			}
		}
		s.blueprints[bp.Identifier] = bp
		s.order = append(s.order, bp.Identifier)
	}

	for _, fe := range f.Entities {
		e := catalog.Entity{
			Identifier: fe.Identifier,
			Title:      fe.Title,
			Blueprint:  fe.Blueprint,
			Properties: fe.Properties,
		}
		if fe.Icon != "" {
			icon := fe.Icon
			e.Icon = &icon
		}
		if len(fe.Relations) > 0 {
			bp := s.blueprints[fe.Blueprint]
			e.Relations = make(map[string]catalog.RelationValue, len(fe.Relations))
			for name, ids := range fe.Relations {
				e.Relations[name] = catalog.RelationValue{
					Identifiers: ids,
					Many:        bp.Relations[name].Many,
				}
			}
		}
		s.insertEntity(fe.Blueprint, e)
	}

	for _, fs := range f.Scorecards {
		s.scorecards = append(s.scorecards, catalog.Scorecard{
			Identifier: fs.Identifier,
			Title:      fs.Title,
			Blueprint:  fs.Blueprint,
		})
	}
	for _, fa := range f.Actions {
		s.actions = append(s.actions, catalog.Action{
			Identifier: fa.Identifier,
			Title:      fa.Title,
			Blueprint:  fa.Blueprint,
		})
	}
	for _, ft := range f.Teams {
		s.teams = append(s.teams, catalog.Team{Name: ft.Name, Users: ft.Users})
	}
}
