package variable

import (
	"fmt"
)

// Issue is a single problem found by a validation pass
type Issue struct {
	VariableID string `json:"variable_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (i Issue) String() string {
	if i.VariableID != "" {
		return fmt.Sprintf("%s (%s): %s", i.Field, i.VariableID, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// Validate runs the cross-field validation pass over the working set and
// returns every issue found. An empty slice means the set is clean. The pass
// is run before the wizard allows a forward transition out of the variable
// management step.
func (s *Set) Validate() []Issue {
	var issues []Issue
	seen := make(map[string]string) // name -> first variable id

	for _, v := range s.variables {
		if v.Name == "" {
			issues = append(issues, Issue{
				VariableID: v.ID.String(),
				Field:      "name",
				Message:    "variable name is empty",
			})
		}
		if !v.Type.IsValid() {
			issues = append(issues, Issue{
				VariableID: v.ID.String(),
				Field:      "type",
				Message:    fmt.Sprintf("unknown variable type %q", v.Type),
			})
		}
		if v.Type == TypeDemographic && !v.IsDemographic {
			issues = append(issues, Issue{
				VariableID: v.ID.String(),
				Field:      "is_demographic",
				Message:    "variable typed demographic must carry the demographic flag",
			})
		}
		if len(v.Ranges) > 0 && v.Type == TypeCategorical {
			issues = append(issues, Issue{
				VariableID: v.ID.String(),
				Field:      "ranges",
				Message:    "numeric ranges are only meaningful for continuous variables",
			})
		}
		for j, r := range v.Ranges {
			if r.Min > r.Max {
				issues = append(issues, Issue{
					VariableID: v.ID.String(),
					Field:      "ranges",
					Message:    fmt.Sprintf("range %d has min %.2f greater than max %.2f", j, r.Min, r.Max),
				})
			}
		}
		if first, dup := seen[v.Name]; dup && v.Name != "" {
			issues = append(issues, Issue{
				VariableID: v.ID.String(),
				Field:      "name",
				Message:    fmt.Sprintf("duplicate variable name %q (already used by %s)", v.Name, first),
			})
		} else if v.Name != "" {
			seen[v.Name] = v.ID.String()
		}
	}

	return issues
}
