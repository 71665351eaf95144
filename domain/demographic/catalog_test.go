package demographic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogSeedsFixedEntries(t *testing.T) {
	c := NewCatalog()
	mappings := c.Mappings()

	require.Len(t, mappings, 6)
	wantOrder := []Key{KeyGender, KeyAge, KeyIncome, KeyEducation, KeyOccupation, KeyMaritalStatus}
	for i, m := range mappings {
		assert.Equal(t, wantOrder[i], m.Key)
		assert.Empty(t, m.SelectedColumn)
	}
}

func TestMapColumnValidatesAgainstVariables(t *testing.T) {
	c := NewCatalog()
	names := []string{"gioi_tinh", "Age", "thu_nhap"}

	require.NoError(t, c.MapColumn(KeyGender, "gioi_tinh", names))
	m, _ := c.Get(KeyGender)
	assert.Equal(t, "gioi_tinh", m.SelectedColumn)

	err := c.MapColumn(KeyAge, "nonexistent", names)
	assert.Error(t, err, "unknown column must be rejected")
	m, _ = c.Get(KeyAge)
	assert.Empty(t, m.SelectedColumn)
}

func TestMapColumnClearsWithEmptyColumn(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.MapColumn(KeyIncome, "thu_nhap", []string{"thu_nhap"}))
	require.NoError(t, c.MapColumn(KeyIncome, "", nil))

	m, _ := c.Get(KeyIncome)
	assert.Empty(t, m.SelectedColumn)
}

func TestAddRankIsAdditive(t *testing.T) {
	c := NewCatalog()

	require.NoError(t, c.AddRank(KeyAge, Rank{Name: "18-25", Value: "1"}))
	require.NoError(t, c.AddRank(KeyAge, Rank{Name: "18-25", Value: "1"})) // duplicates allowed

	m, _ := c.Get(KeyAge)
	assert.Len(t, m.Ranks, 2)
}

func TestDropColumnClearsDanglingMappings(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.MapColumn(KeyGender, "gioi_tinh", []string{"gioi_tinh"}))

	c.DropColumn("gioi_tinh")

	m, _ := c.Get(KeyGender)
	assert.Empty(t, m.SelectedColumn)
}

func TestRestoreKeepsCatalogClosed(t *testing.T) {
	saved := []Mapping{
		{Key: KeyAge, SelectedColumn: "Age", Ranks: []Rank{{Name: "young", Value: "<30"}}},
		{Key: Key("planet"), SelectedColumn: "x"}, // unknown key dropped
	}

	c := Restore(saved)
	mappings := c.Mappings()

	require.Len(t, mappings, 6)
	m, ok := c.Get(KeyAge)
	require.True(t, ok)
	assert.Equal(t, "Age", m.SelectedColumn)
	assert.Len(t, m.Ranks, 1)
	_, ok = c.Get(Key("planet"))
	assert.False(t, ok)
}
