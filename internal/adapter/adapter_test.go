package adapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voodooEntity/reactor/internal/pathmodel"
)

func mustParse(t *testing.T, s string) pathmodel.Path {
	t.Helper()
	p, err := pathmodel.Parse(s, pathmodel.ParseOptions{})
	require.NoError(t, err)
	return p
}

func TestSetGetAutoCreate(t *testing.T) {
	a := New(DefaultOptions())
	err := a.Set(mustParse(t, "flights.legs[0].id"), "LEG-1", nil)
	require.NoError(t, err)

	v, found, err := a.Get(mustParse(t, "flights.legs[0].id"), nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "LEG-1", v)
}

func TestGetAbsentIsNotError(t *testing.T) {
	a := New(DefaultOptions())
	v, found, err := a.Get(mustParse(t, "flights.legs[0].id"), nil)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, v)
}

func TestSetWithoutAutoCreateFailsOnMissingContainer(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoCreate = false
	a := New(opts)
	err := a.Set(mustParse(t, "flights.legs[0].id"), "LEG-1", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingContainer))
}

func TestParamCreateAndLookupByField(t *testing.T) {
	a := New(DefaultOptions())
	require.NoError(t, a.Set(mustParse(t, "legs[id=\"LEG-1\"]"), map[string]any{"gate": "A1"}, nil))
	require.NoError(t, a.Set(mustParse(t, "legs[id=\"LEG-2\"]"), map[string]any{"gate": "B2"}, nil))

	v, found, err := a.Get(mustParse(t, "legs[id=\"LEG-2\"].gate"), nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "B2", v)

	idx := a.IndexOf(mustParse(t, "legs[id=\"LEG-1\"]"), nil)
	require.Equal(t, 0, idx)
}

func TestParamUpdateMergesAndRestoresFieldKey(t *testing.T) {
	a := New(DefaultOptions())
	require.NoError(t, a.Set(mustParse(t, "legs[id=\"LEG-1\"]"), map[string]any{"gate": "A1"}, nil))
	require.NoError(t, a.Set(mustParse(t, "legs[id=\"LEG-1\"]"), map[string]any{"gate": "A9"}, nil))

	v, found, err := a.Get(mustParse(t, "legs[id=\"LEG-1\"].gate"), nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "A9", v)

	id, found, err := a.Get(mustParse(t, "legs[id=\"LEG-1\"].id"), nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "LEG-1", id)
}

func TestParamSetRejectsNonMappingValue(t *testing.T) {
	a := New(DefaultOptions())
	err := a.Set(mustParse(t, "legs[id=\"LEG-1\"]"), "not-a-map", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrParamLeafNotMapping))
}

func TestWildcardInCRUDIsHardError(t *testing.T) {
	a := New(DefaultOptions())
	_, _, err := a.Get(mustParse(t, "legs.*.id"), nil)
	require.True(t, errors.Is(err, ErrWildcardInCRUD))
	require.True(t, errors.Is(a.Set(mustParse(t, "legs.*.id"), 1, nil), ErrWildcardInCRUD))
}

func TestMergeShallowMergesExistingMap(t *testing.T) {
	a := New(DefaultOptions())
	require.NoError(t, a.Set(mustParse(t, "profile"), map[string]any{"name": "Ada", "age": 30.0}, nil))
	require.NoError(t, a.Merge(mustParse(t, "profile"), map[string]any{"age": 31.0}, nil))

	v, _, err := a.Get(mustParse(t, "profile"), nil)
	require.NoError(t, err)
	m := v.(map[string]any)
	require.Equal(t, "Ada", m["name"])
	require.Equal(t, 31.0, m["age"])
}

func TestDeleteIndexSplice(t *testing.T) {
	opts := DefaultOptions()
	opts.ArrayDelete = ArraySplice
	a := New(opts)
	require.NoError(t, a.Set(mustParse(t, "items[0]"), "a", nil))
	require.NoError(t, a.Set(mustParse(t, "items[1]"), "b", nil))
	require.NoError(t, a.Set(mustParse(t, "items[2]"), "c", nil))

	require.NoError(t, a.Delete(mustParse(t, "items[1]"), nil))

	v0, _, _ := a.Get(mustParse(t, "items[0]"), nil)
	v1, _, _ := a.Get(mustParse(t, "items[1]"), nil)
	require.Equal(t, "a", v0)
	require.Equal(t, "c", v1)
}

func TestDeleteIndexUnsetLeavesHole(t *testing.T) {
	a := New(DefaultOptions())
	require.NoError(t, a.Set(mustParse(t, "items[0]"), "a", nil))
	require.NoError(t, a.Set(mustParse(t, "items[1]"), "b", nil))

	require.NoError(t, a.Delete(mustParse(t, "items[0]"), nil))

	v1, found, _ := a.Get(mustParse(t, "items[1]"), nil)
	require.True(t, found)
	require.Equal(t, "b", v1)

	v0, found, _ := a.Get(mustParse(t, "items[0]"), nil)
	require.True(t, found)
	require.Nil(t, v0)
}

func TestDeleteMissingPathIsNoop(t *testing.T) {
	a := New(DefaultOptions())
	require.NoError(t, a.Delete(mustParse(t, "nope.nested[0]"), nil))
}

func TestIndexOfNeverErrors(t *testing.T) {
	a := New(DefaultOptions())
	require.Equal(t, -1, a.IndexOf(mustParse(t, "legs.*"), nil))
	require.Equal(t, -1, a.IndexOf(mustParse(t, "legs[id=\"missing\"]"), nil))
}

func TestPlaceholderKeyRebasesToVariableAsLiteralKeyName(t *testing.T) {
	a := New(DefaultOptions())
	require.NoError(t, a.Set(mustParse(t, "FLT_ARR.legs[0].id"), "LEG-1", nil))

	v, found, err := a.Get(mustParse(t, "$store.legs[0].id"), map[string]any{"store": "FLT_ARR"})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "LEG-1", v)
}

func TestSecondaryIndexSurvivesRebuildAfterWholesaleInvalidate(t *testing.T) {
	a := New(DefaultOptions())
	require.NoError(t, a.Set(mustParse(t, "legs[id=\"LEG-1\"]"), map[string]any{"gate": "A1"}, nil))
	require.NoError(t, a.Set(mustParse(t, "legs[0]"), map[string]any{"id": "LEG-1", "gate": "A9"}, nil))

	v, found, err := a.Get(mustParse(t, "legs[id=\"LEG-1\"].gate"), nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "A9", v)
}
