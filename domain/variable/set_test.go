package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDeleteGroupCascades(t *testing.T) {
	set := NewSet(namedVariables("EM1", "EM2", "SAT1", "Age"))

	removed, err := set.DeleteGroup("EM")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// The variables are gone from the working set, not just unlinked, and a
	// subsequent regroup never re-materializes them.
	assert.Equal(t, 2, set.Len())
	groups := set.Groups()
	assert.Equal(t, []string{"SAT", "Age"}, groupNames(groups))
	_, found := set.ByName("EM1")
	assert.False(t, found)
}

func TestSetDeleteGroupUnknown(t *testing.T) {
	set := NewSet(namedVariables("EM1"))

	_, err := set.DeleteGroup("SAT")
	assert.Error(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestSetRenameGroupSurvivesRegroup(t *testing.T) {
	set := NewSet(namedVariables("EM1", "EM2", "SAT1"))

	require.NoError(t, set.RenameGroup("EM", "Emotion"))

	// The rename is written back onto member variables, so it survives any
	// later mutation of the variable list.
	set.Add(New("EM3", TypeContinuous))
	groups := set.Groups()

	assert.Equal(t, []string{"Emotion", "SAT", "EM"}, groupNames(groups))
	assert.Equal(t, []string{"EM1", "EM2"}, memberNames(groups[0]))
	// The freshly added EM3 was never part of the renamed group.
	assert.Equal(t, []string{"EM3"}, memberNames(groups[2]))
}

func TestSetSetGroupDemographicCascades(t *testing.T) {
	set := NewSet(namedVariables("EM1", "EM2"))

	require.NoError(t, set.SetGroupDemographic("EM", true))

	for _, v := range set.Variables() {
		assert.True(t, v.IsDemographic, "flag must cascade to member %s", v.Name)
	}

	require.NoError(t, set.SetGroupDemographic("EM", false))
	for _, v := range set.Variables() {
		assert.False(t, v.IsDemographic)
	}
}

func TestSetGroupDemographicKeepsTypeInvariant(t *testing.T) {
	set := NewSet(nil)
	set.Add(New("gioi_tinh", TypeDemographic))

	require.NoError(t, set.SetGroupDemographic("gioi_tinh", false))

	v, ok := set.ByName("gioi_tinh")
	require.True(t, ok)
	assert.True(t, v.IsDemographic, "demographic-typed variable cannot lose the flag")
}

func TestSetUnassignGroup(t *testing.T) {
	set := NewSet(namedVariables("EM1", "EM2"))
	require.NoError(t, set.RenameGroup("EM", "Emotion"))

	v, _ := set.ByName("EM1")
	require.NoError(t, set.UnassignGroup(v.ID))

	groups := set.Groups()
	assert.Equal(t, []string{"EM", "Emotion"}, groupNames(groups))
}

func TestSetUpdatePartial(t *testing.T) {
	set := NewSet(namedVariables("Age"))
	v, _ := set.ByName("Age")

	typ := TypeDemographic
	updated, err := set.Update(v.ID, Update{Type: &typ})
	require.NoError(t, err)

	assert.Equal(t, "Age", updated.Name, "untouched fields keep their value")
	assert.Equal(t, TypeDemographic, updated.Type)
	assert.True(t, updated.IsDemographic, "normalization applies after update")
}

func TestSetApplyBackendGroupsMerges(t *testing.T) {
	set := NewSet(namedVariables("EM1", "EM2", "SAT1", "Age"))

	// Backend grouping covers only part of the variable list; uncovered
	// variables keep prefix-derived grouping.
	set.ApplyBackendGroups(map[string][]string{
		"WellBeing": {"EM1", "EM2"},
	})

	groups := set.Groups()
	assert.Equal(t, []string{"WellBeing", "SAT", "Age"}, groupNames(groups))
}

func TestSetValidateFindsIssues(t *testing.T) {
	set := NewSet(nil)
	set.Add(New("EM1", TypeContinuous))
	set.Add(New("EM1", TypeContinuous)) // duplicate name
	bad := New("income", TypeContinuous)
	bad.Ranges = []Range{{Min: 100, Max: 50, Label: "inverted"}}
	set.Add(bad)

	issues := set.Validate()
	require.Len(t, issues, 2)
	assert.Equal(t, "name", issues[0].Field)
	assert.Equal(t, "ranges", issues[1].Field)
}
