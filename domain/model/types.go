// Package model holds the research model: the working variable set plus the
// relationship declarations the selected analyses operate on.
package model

import (
	"fmt"

	"ncsresearch/domain/core"
	"ncsresearch/domain/variable"
)

// RelationshipType classifies how one variable is declared to act on another
type RelationshipType string

const (
	RelationDirect     RelationshipType = "direct"
	RelationModerating RelationshipType = "moderating"
	RelationMediating  RelationshipType = "mediating"
)

// IsValid reports whether t is a known relationship type
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationDirect, RelationModerating, RelationMediating:
		return true
	}
	return false
}

// Relationship declares that From acts on To with an editable hypothesis text
type Relationship struct {
	From       core.VariableID  `json:"from"`
	To         core.VariableID  `json:"to"`
	Type       RelationshipType `json:"type"`
	Hypothesis string           `json:"hypothesis"`
}

// ResearchModel is the variables in scope for analysis plus the declared
// relationships between them.
type ResearchModel struct {
	Variables     []variable.Variable `json:"variables"`
	Relationships []Relationship      `json:"relationships"`
}

// SeedHypothesis returns the default hypothesis text for a relationship,
// "<from> ảnh hưởng đến <to>" ("<from> affects <to>"), matching the platform's
// Vietnamese research-writing conventions. Users may edit it afterwards.
func SeedHypothesis(fromName, toName string) string {
	return fmt.Sprintf("%s ảnh hưởng đến %s", fromName, toName)
}

// AddRelationship appends a relationship, seeding the hypothesis when empty
func (m *ResearchModel) AddRelationship(rel Relationship) {
	if rel.Hypothesis == "" {
		fromName := m.variableName(rel.From)
		toName := m.variableName(rel.To)
		rel.Hypothesis = SeedHypothesis(fromName, toName)
	}
	m.Relationships = append(m.Relationships, rel)
}

// RemoveRelationship deletes the relationship at index idx
func (m *ResearchModel) RemoveRelationship(idx int) error {
	if idx < 0 || idx >= len(m.Relationships) {
		return fmt.Errorf("relationship index %d out of range", idx)
	}
	m.Relationships = append(m.Relationships[:idx], m.Relationships[idx+1:]...)
	return nil
}

// PruneDangling drops relationships referencing variables no longer present.
// Called after variable deletions so the model never points at ghosts.
func (m *ResearchModel) PruneDangling() int {
	present := make(map[core.VariableID]bool, len(m.Variables))
	for _, v := range m.Variables {
		present[v.ID] = true
	}
	kept := m.Relationships[:0]
	dropped := 0
	for _, rel := range m.Relationships {
		if present[rel.From] && present[rel.To] {
			kept = append(kept, rel)
		} else {
			dropped++
		}
	}
	m.Relationships = kept
	return dropped
}

func (m *ResearchModel) variableName(id core.VariableID) string {
	for _, v := range m.Variables {
		if v.ID == id {
			return v.Name
		}
	}
	return id.String()
}

// Validate runs the relationship validation pass: every endpoint must
// reference a present variable, self-loops are rejected, and duplicate
// (from, to, type) declarations are rejected. Run before the wizard allows
// the forward transition out of the model-building step.
func (m *ResearchModel) Validate() []string {
	var problems []string
	present := make(map[core.VariableID]bool, len(m.Variables))
	for _, v := range m.Variables {
		present[v.ID] = true
	}

	type edge struct {
		from, to core.VariableID
		typ      RelationshipType
	}
	seen := make(map[edge]bool)

	for i, rel := range m.Relationships {
		if !rel.Type.IsValid() {
			problems = append(problems, fmt.Sprintf("relationship %d: unknown type %q", i, rel.Type))
		}
		if !present[rel.From] {
			problems = append(problems, fmt.Sprintf("relationship %d: source variable %s is not in the model", i, rel.From))
		}
		if !present[rel.To] {
			problems = append(problems, fmt.Sprintf("relationship %d: target variable %s is not in the model", i, rel.To))
		}
		if rel.From == rel.To {
			problems = append(problems, fmt.Sprintf("relationship %d: a variable cannot act on itself", i))
		}
		e := edge{rel.From, rel.To, rel.Type}
		if seen[e] {
			problems = append(problems, fmt.Sprintf("relationship %d: duplicate %s declaration between the same variables", i, rel.Type))
		}
		seen[e] = true
	}

	return problems
}
