// Package demographic maintains the fixed catalog of demographic concepts and
// the user-editable mapping from each concept to a dataset column.
package demographic

import (
	"fmt"

	"ncsresearch/internal/errors"
)

// Key identifies a demographic concept from the closed catalog
type Key string

const (
	KeyGender        Key = "gender"
	KeyAge           Key = "age"
	KeyIncome        Key = "income"
	KeyEducation     Key = "education"
	KeyOccupation    Key = "occupation"
	KeyMaritalStatus Key = "marital_status"
)

// Rank is a user-entered category or threshold layered on top of the selected
// column. Values stay free text even when they represent numeric boundaries.
type Rank struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Mapping binds one demographic concept to a chosen dataset column
type Mapping struct {
	Key            Key    `json:"key"`
	Label          string `json:"label"`
	SelectedColumn string `json:"selected_column,omitempty"`
	Ranks          []Rank `json:"ranks,omitempty"`
}

// Catalog holds the session's demographic mappings. Catalog entries are fixed
// for the lifetime of a session; only SelectedColumn and Ranks mutate.
type Catalog struct {
	mappings []Mapping
}

// NewCatalog seeds the fixed, ordered demographic catalog
func NewCatalog() *Catalog {
	return &Catalog{
		mappings: []Mapping{
			{Key: KeyGender, Label: "Gender"},
			{Key: KeyAge, Label: "Age"},
			{Key: KeyIncome, Label: "Income"},
			{Key: KeyEducation, Label: "Education"},
			{Key: KeyOccupation, Label: "Occupation"},
			{Key: KeyMaritalStatus, Label: "Marital status"},
		},
	}
}

// Restore rebuilds a catalog from persisted mappings, keeping catalog order
// and membership fixed: unknown keys are dropped, missing keys re-seeded.
func Restore(saved []Mapping) *Catalog {
	c := NewCatalog()
	byKey := make(map[Key]Mapping, len(saved))
	for _, m := range saved {
		byKey[m.Key] = m
	}
	for i := range c.mappings {
		if m, ok := byKey[c.mappings[i].Key]; ok {
			c.mappings[i].SelectedColumn = m.SelectedColumn
			c.mappings[i].Ranks = m.Ranks
		}
	}
	return c
}

// Mappings returns the catalog in its fixed order
func (c *Catalog) Mappings() []Mapping {
	out := make([]Mapping, len(c.mappings))
	copy(out, c.mappings)
	return out
}

// Get returns the mapping for a key
func (c *Catalog) Get(key Key) (Mapping, bool) {
	for _, m := range c.mappings {
		if m.Key == key {
			return m, true
		}
	}
	return Mapping{}, false
}

// MapColumn sets the data-source column for a demographic concept. The column
// is validated against the current variable names so a stale or nonexistent
// column can never be stored.
func (c *Catalog) MapColumn(key Key, column string, variableNames []string) error {
	idx := -1
	for i, m := range c.mappings {
		if m.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.NotFound(fmt.Sprintf("demographic concept %q", key))
	}

	if column == "" {
		c.mappings[idx].SelectedColumn = ""
		return nil
	}

	for _, name := range variableNames {
		if name == column {
			c.mappings[idx].SelectedColumn = column
			return nil
		}
	}
	return errors.ValidationError(fmt.Sprintf("column %q does not exist in the current variable set", column))
}

// AddRank appends a rank entry to a mapping. Ranks are additive with no
// uniqueness or ordering constraint.
func (c *Catalog) AddRank(key Key, rank Rank) error {
	for i := range c.mappings {
		if c.mappings[i].Key == key {
			c.mappings[i].Ranks = append(c.mappings[i].Ranks, rank)
			return nil
		}
	}
	return errors.NotFound(fmt.Sprintf("demographic concept %q", key))
}

// DropColumn clears any mapping that references the given column name. Called
// when a variable is deleted so mappings never dangle.
func (c *Catalog) DropColumn(column string) {
	for i := range c.mappings {
		if c.mappings[i].SelectedColumn == column {
			c.mappings[i].SelectedColumn = ""
		}
	}
}
