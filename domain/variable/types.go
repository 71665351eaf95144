package variable

import (
	"time"

	"ncsresearch/domain/core"
)

// Type classifies how a variable's values are measured
type Type string

const (
	TypeContinuous  Type = "continuous"
	TypeCategorical Type = "categorical"
	TypeOrdinal     Type = "ordinal"
	TypeDemographic Type = "demographic"
)

// IsValid reports whether t is a known variable type
func (t Type) IsValid() bool {
	switch t {
	case TypeContinuous, TypeCategorical, TypeOrdinal, TypeDemographic:
		return true
	}
	return false
}

// Range is a numeric bucket mapping a continuous variable onto a demographic band
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Label string  `json:"label"`
}

// Variable is a single column of the uploaded dataset as seen by the wizard.
// Variables are the source of truth; groups are a projection recomputed from
// the variable list whenever it changes.
type Variable struct {
	ID            core.VariableID `json:"id"`
	Name          string          `json:"name"`
	Type          Type            `json:"type"`
	IsDemographic bool            `json:"is_demographic"`
	Categories    []string        `json:"categories,omitempty"`
	Ranges        []Range         `json:"ranges,omitempty"`
	Description   string          `json:"description,omitempty"`

	// GroupName, when non-empty, durably pins the variable to a group and
	// takes precedence over prefix-derived grouping. Group renames write
	// through this field so they survive regrouping.
	GroupName string `json:"group_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a variable with a fresh identifier
func New(name string, typ Type) Variable {
	now := time.Now()
	v := Variable{
		ID:        core.NewVariableID(),
		Name:      name,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.Normalize()
	return v
}

// Normalize enforces cross-field invariants. A variable typed demographic is
// always flagged demographic; the inverse direction is left to the user.
func (v *Variable) Normalize() {
	if v.Type == TypeDemographic {
		v.IsDemographic = true
	}
	if !v.Type.IsValid() {
		v.Type = TypeContinuous
	}
}

// Update describes a partial in-place mutation of a variable. Nil fields are
// left untouched.
type Update struct {
	Name          *string   `json:"name,omitempty"`
	Type          *Type     `json:"type,omitempty"`
	IsDemographic *bool     `json:"is_demographic,omitempty"`
	Categories    *[]string `json:"categories,omitempty"`
	Ranges        *[]Range  `json:"ranges,omitempty"`
	Description   *string   `json:"description,omitempty"`
}

// Apply writes the non-nil fields of u onto v and re-normalizes
func (v *Variable) Apply(u Update) {
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Type != nil {
		v.Type = *u.Type
	}
	if u.IsDemographic != nil {
		v.IsDemographic = *u.IsDemographic
	}
	if u.Categories != nil {
		v.Categories = *u.Categories
	}
	if u.Ranges != nil {
		v.Ranges = *u.Ranges
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	v.Normalize()
	v.UpdatedAt = time.Now()
}

// Group is a named partition of variables. Groups are derived: the entire
// group list is rebuilt from the variable list on every change, so only
// state written back onto member variables survives recomputation.
type Group struct {
	Name          string     `json:"name"`
	Variables     []Variable `json:"variables"`
	IsDemographic bool       `json:"is_demographic"`
}
