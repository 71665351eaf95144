package model

import (
	"testing"

	"ncsresearch/domain/variable"
)

func TestAddRelationshipSeedsHypothesis(t *testing.T) {
	em := variable.New("EM", variable.TypeContinuous)
	sat := variable.New("SAT", variable.TypeContinuous)
	m := ResearchModel{Variables: []variable.Variable{em, sat}}

	m.AddRelationship(Relationship{From: em.ID, To: sat.ID, Type: RelationDirect})

	if got, want := m.Relationships[0].Hypothesis, "EM ảnh hưởng đến SAT"; got != want {
		t.Errorf("seeded hypothesis = %q, want %q", got, want)
	}

	// User-supplied text is never overwritten.
	m.AddRelationship(Relationship{From: sat.ID, To: em.ID, Type: RelationDirect, Hypothesis: "custom"})
	if m.Relationships[1].Hypothesis != "custom" {
		t.Errorf("custom hypothesis was overwritten: %q", m.Relationships[1].Hypothesis)
	}
}

func TestValidate(t *testing.T) {
	em := variable.New("EM", variable.TypeContinuous)
	sat := variable.New("SAT", variable.TypeContinuous)
	ghost := variable.New("Ghost", variable.TypeContinuous)

	tests := []struct {
		name         string
		rels         []Relationship
		wantProblems int
	}{
		{
			name:         "clean model",
			rels:         []Relationship{{From: em.ID, To: sat.ID, Type: RelationDirect, Hypothesis: "h"}},
			wantProblems: 0,
		},
		{
			name:         "dangling reference",
			rels:         []Relationship{{From: em.ID, To: ghost.ID, Type: RelationDirect}},
			wantProblems: 1,
		},
		{
			name:         "self loop",
			rels:         []Relationship{{From: em.ID, To: em.ID, Type: RelationMediating}},
			wantProblems: 1,
		},
		{
			name: "duplicate declaration",
			rels: []Relationship{
				{From: em.ID, To: sat.ID, Type: RelationDirect},
				{From: em.ID, To: sat.ID, Type: RelationDirect},
			},
			wantProblems: 1,
		},
		{
			name: "same edge different type allowed",
			rels: []Relationship{
				{From: em.ID, To: sat.ID, Type: RelationDirect},
				{From: em.ID, To: sat.ID, Type: RelationModerating},
			},
			wantProblems: 0,
		},
		{
			name:         "unknown type",
			rels:         []Relationship{{From: em.ID, To: sat.ID, Type: "psychic"}},
			wantProblems: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ResearchModel{
				Variables:     []variable.Variable{em, sat},
				Relationships: tt.rels,
			}
			problems := m.Validate()
			if len(problems) != tt.wantProblems {
				t.Errorf("got %d problems %v, want %d", len(problems), problems, tt.wantProblems)
			}
		})
	}
}

func TestPruneDangling(t *testing.T) {
	em := variable.New("EM", variable.TypeContinuous)
	sat := variable.New("SAT", variable.TypeContinuous)
	ghost := variable.New("Ghost", variable.TypeContinuous)

	m := ResearchModel{
		Variables: []variable.Variable{em, sat},
		Relationships: []Relationship{
			{From: em.ID, To: sat.ID, Type: RelationDirect},
			{From: em.ID, To: ghost.ID, Type: RelationDirect},
			{From: ghost.ID, To: sat.ID, Type: RelationMediating},
		},
	}

	dropped := m.PruneDangling()

	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if len(m.Relationships) != 1 {
		t.Fatalf("kept = %d relationships, want 1", len(m.Relationships))
	}
	if m.Relationships[0].From != em.ID || m.Relationships[0].To != sat.ID {
		t.Errorf("wrong relationship kept: %+v", m.Relationships[0])
	}
}
