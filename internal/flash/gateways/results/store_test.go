package results

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	st := tempStore(t)

	doc := []byte(`{"total_reads": {"bytes": 1, "objects": 1}}`)
	require.NoError(t, st.Put("baseline", doc))

	got, err := st.Get("baseline")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestStore_GetMissing(t *testing.T) {
	st := tempStore(t)
	_, err := st.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutReplaces(t *testing.T) {
	st := tempStore(t)
	require.NoError(t, st.Put("run", []byte("v1")))
	require.NoError(t, st.Put("run", []byte("v2")))

	got, err := st.Get("run")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	runs, err := st.Runs()
	require.NoError(t, err)
	assert.Equal(t, []string{"run"}, runs)
}

func TestStore_RunsSorted(t *testing.T) {
	st := tempStore(t)
	require.NoError(t, st.Put("b", []byte("2")))
	require.NoError(t, st.Put("a", []byte("1")))

	runs, err := st.Runs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, runs)
}

func TestStore_UpdatedUnix(t *testing.T) {
	st := tempStore(t)
	ts, err := st.UpdatedUnix()
	require.NoError(t, err)
	assert.Zero(t, ts, "fresh store has no update stamp")

	require.NoError(t, st.Put("run", []byte("x")))
	ts, err = st.UpdatedUnix()
	require.NoError(t, err)
	assert.NotZero(t, ts)
}
