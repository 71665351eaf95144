package variable

import (
	"regexp"
)

// Survey instruments name related items with a shared letter prefix and a
// numeric suffix (EM1..EM5 are five items of one construct). Grouping by
// prefix gives zero-configuration clustering that matches questionnaire
// conventions; it is purely syntactic.
var itemPattern = regexp.MustCompile(`^([A-Za-z]+)(\d*)$`)

// GroupKeyFor returns the group key a variable resolves to: its durable
// GroupName override when set, the letter prefix when the name matches the
// <letters><optional digits> pattern, or the full name otherwise.
func GroupKeyFor(v Variable) string {
	if v.GroupName != "" {
		return v.GroupName
	}
	if m := itemPattern.FindStringSubmatch(v.Name); m != nil {
		return m[1]
	}
	return v.Name
}

// Regroup rebuilds the full group projection from the variable list.
// Recomputation is total: no incremental diffing. Bucket order follows the
// first appearance of each key; member order follows variable order. A
// group is demographic when at least one member is flagged demographic.
func Regroup(variables []Variable) []Group {
	buckets := make(map[string]*Group)
	var order []string

	for _, v := range variables {
		key := GroupKeyFor(v)
		g, ok := buckets[key]
		if !ok {
			g = &Group{Name: key}
			buckets[key] = g
			order = append(order, key)
		}
		g.Variables = append(g.Variables, v)
		if v.IsDemographic {
			g.IsDemographic = true
		}
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, *buckets[key])
	}
	return groups
}
