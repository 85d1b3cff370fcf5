package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	msc "multirat/middle_mile_scheduling/common"
	"multirat/routing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouteSet() *routing.RouteSet {
	set := routing.NewRouteSet("ant_colony")
	set.Add("0", msc.RouteTable{"1": "10.0.0.0", "3": "10.0.3.1"})
	set.Add("1", msc.RouteTable{"0": "10.0.0.1"})
	set.Add("3", msc.RouteTable{"1": "10.0.1.3"})
	return set
}

func TestEncodeRoutes(t *testing.T) {
	data, err := EncodeRoutes(newRouteSet())
	require.NoError(t, err)
	assert.Equal(t, "1:10.0.0.1\n0:10.0.0.0,3:10.0.1.3\n\n0:10.0.3.1\n", string(data))
}

func TestEncodeRoutesEmpty(t *testing.T) {
	data, err := EncodeRoutes(routing.NewRouteSet("ant_colony"))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestEncodeRoutesRejectsNonNumericNodes(t *testing.T) {
	for _, src := range []string{"A", "-1", "1.5"} {
		set := routing.NewRouteSet("ant_colony")
		set.Add("0", msc.RouteTable{src: "ip"})
		_, err := EncodeRoutes(set)
		assert.ErrorIs(t, err, ErrNonNumericNode, "source %q", src)
	}
}

func TestWriteRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.txt")
	require.NoError(t, WriteRoutes(path, newRouteSet()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1:10.0.0.1\n0:10.0.0.0,3:10.0.1.3\n\n0:10.0.3.1\n", string(data))

	hash, err := CalculateFileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, CalculateMD5(data), hash)
}

func TestCalculateFileMD5Missing(t *testing.T) {
	hash, err := CalculateFileMD5(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestRouteStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")

	store, err := NewRouteStore(dir)
	require.NoError(t, err)
	assert.Nil(t, store.Latest())
	assert.Empty(t, store.Hash())

	snapshot := NewSnapshot(newRouteSet())
	snapshot.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snapshot.Nodes = 4
	snapshot.Links = 6
	snapshot.DroppedLinks = 1

	_, err = uuid.Parse(snapshot.RunID)
	require.NoError(t, err)

	require.NoError(t, store.Save(snapshot))
	assert.Equal(t, filepath.Join(dir, "routes.json"), store.Path())
	assert.NotEmpty(t, store.Hash())

	changed, err := store.Changed()
	require.NoError(t, err)
	assert.False(t, changed)

	// a new store picks the snapshot up from disk
	reloaded, err := NewRouteStore(dir)
	require.NoError(t, err)
	latest := reloaded.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, snapshot.RunID, latest.RunID)
	assert.Equal(t, snapshot.Routes, latest.Routes)
	assert.Equal(t, []string{"0", "1", "3"}, latest.Destinations)
	assert.True(t, snapshot.CreatedAt.Equal(latest.CreatedAt))
	assert.Equal(t, store.Hash(), reloaded.Hash())

	require.NoError(t, os.WriteFile(store.Path(), []byte("{}"), 0644))
	changed, err = store.Changed()
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestRoutesHashIgnoresRunIdentity(t *testing.T) {
	first := NewSnapshot(newRouteSet())
	second := NewSnapshot(newRouteSet())
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.RoutesHash, second.RoutesHash)
	assert.Len(t, first.RoutesHash, 32)

	other := newRouteSet()
	other.Add("2", msc.RouteTable{"0": "10.0.0.2"})
	assert.NotEqual(t, first.RoutesHash, NewSnapshot(other).RoutesHash)
}

func TestRouteStoreTrack(t *testing.T) {
	dir := t.TempDir()

	store, err := NewRouteStore(dir)
	require.NoError(t, err)
	first := NewSnapshot(newRouteSet())
	assert.True(t, store.Track(first))
	assert.Empty(t, first.PreviousRunID)
	require.NoError(t, store.Save(first))

	// a later process reloads the snapshot and sees the same routes
	reloaded, err := NewRouteStore(dir)
	require.NoError(t, err)
	same := NewSnapshot(newRouteSet())
	assert.False(t, reloaded.Track(same))
	assert.Equal(t, first.RunID, same.PreviousRunID)
	require.NoError(t, reloaded.Save(same))

	set := newRouteSet()
	set.Add("2", msc.RouteTable{"0": "10.0.0.2"})
	different := NewSnapshot(set)
	assert.True(t, reloaded.Track(different))
	assert.Equal(t, same.RunID, different.PreviousRunID)
}

func TestRouteStoreIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes.json"), []byte("not json"), 0644))

	store, err := NewRouteStore(dir)
	require.NoError(t, err)
	assert.Nil(t, store.Latest())
}
