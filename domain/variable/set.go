package variable

import (
	"time"

	"ncsresearch/domain/core"
	"ncsresearch/internal/errors"
)

// Set is the working set of variables in scope for an analysis session.
// All group-level edits write back onto the member variables so they are
// durable across regrouping.
type Set struct {
	variables []Variable
}

// NewSet creates a working set seeded with the given variables
func NewSet(variables []Variable) *Set {
	s := &Set{variables: make([]Variable, len(variables))}
	copy(s.variables, variables)
	for i := range s.variables {
		s.variables[i].Normalize()
	}
	return s
}

// Variables returns the variables in insertion order
func (s *Set) Variables() []Variable {
	out := make([]Variable, len(s.variables))
	copy(out, s.variables)
	return out
}

// Groups returns the derived group projection
func (s *Set) Groups() []Group {
	return Regroup(s.variables)
}

// Len returns the number of variables in the working set
func (s *Set) Len() int {
	return len(s.variables)
}

// Get returns the variable with the given id
func (s *Set) Get(id core.VariableID) (Variable, bool) {
	for _, v := range s.variables {
		if v.ID == id {
			return v, true
		}
	}
	return Variable{}, false
}

// ByName returns the first variable with the given name
func (s *Set) ByName(name string) (Variable, bool) {
	for _, v := range s.variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Add appends a variable to the working set
func (s *Set) Add(v Variable) Variable {
	if v.ID.String() == "" {
		v.ID = core.NewVariableID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	v.UpdatedAt = time.Now()
	v.Normalize()
	s.variables = append(s.variables, v)
	return v
}

// Update applies a partial update to the variable with the given id
func (s *Set) Update(id core.VariableID, u Update) (Variable, error) {
	for i := range s.variables {
		if s.variables[i].ID == id {
			s.variables[i].Apply(u)
			return s.variables[i], nil
		}
	}
	return Variable{}, errors.NotFound("variable " + id.String())
}

// Delete removes a single variable from the working set outright. This is
// the one deletion primitive; group membership changes that keep the
// variable alive go through UnassignGroup instead.
func (s *Set) Delete(id core.VariableID) error {
	for i := range s.variables {
		if s.variables[i].ID == id {
			s.variables = append(s.variables[:i], s.variables[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("variable " + id.String())
}

// DeleteGroup removes every variable that is currently a member of the named
// group from the working set. Destructive and non-reversible; a later
// regroup never re-materializes the deleted variables.
func (s *Set) DeleteGroup(name string) (int, error) {
	kept := s.variables[:0]
	removed := 0
	for _, v := range s.variables {
		if GroupKeyFor(v) == name {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	if removed == 0 {
		return 0, errors.NotFound("group " + name)
	}
	s.variables = kept
	return removed, nil
}

// RenameGroup writes the new name onto every member variable as a durable
// group assignment, so the rename survives subsequent regrouping.
func (s *Set) RenameGroup(oldName, newName string) error {
	if newName == "" {
		return errors.InvalidInput("group name cannot be empty")
	}
	found := false
	for i := range s.variables {
		if GroupKeyFor(s.variables[i]) == oldName {
			s.variables[i].GroupName = newName
			s.variables[i].UpdatedAt = time.Now()
			found = true
		}
	}
	if !found {
		return errors.NotFound("group " + oldName)
	}
	return nil
}

// SetGroupDemographic cascades the demographic flag to every member variable,
// making the change durable across regrouping.
func (s *Set) SetGroupDemographic(name string, demographic bool) error {
	found := false
	for i := range s.variables {
		if GroupKeyFor(s.variables[i]) == name {
			s.variables[i].IsDemographic = demographic
			if !demographic && s.variables[i].Type == TypeDemographic {
				// Keep the type/flag invariant: a demographic-typed variable
				// cannot be unflagged without retyping it first.
				s.variables[i].IsDemographic = true
			}
			s.variables[i].UpdatedAt = time.Now()
			found = true
		}
	}
	if !found {
		return errors.NotFound("group " + name)
	}
	return nil
}

// UnassignGroup clears a variable's durable group override without deleting
// it; the variable falls back to prefix-derived grouping.
func (s *Set) UnassignGroup(id core.VariableID) error {
	for i := range s.variables {
		if s.variables[i].ID == id {
			s.variables[i].GroupName = ""
			s.variables[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return errors.NotFound("variable " + id.String())
}

// ApplyBackendGroups merges backend-inferred grouping into the working set.
// Backend groups become durable overrides for the variables they cover;
// variables the backend left out keep prefix-derived grouping. Only a fully
// absent grouping falls back to the auto-grouper alone.
func (s *Set) ApplyBackendGroups(groups map[string][]string) {
	if len(groups) == 0 {
		return
	}
	byName := make(map[string]string) // variable name -> group name
	for groupName, members := range groups {
		for _, member := range members {
			byName[member] = groupName
		}
	}
	for i := range s.variables {
		if groupName, ok := byName[s.variables[i].Name]; ok {
			s.variables[i].GroupName = groupName
		}
	}
}
