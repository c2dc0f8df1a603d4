package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func newTestStore(t *testing.T, maxEntries int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	return New(maxEntries, path), path
}

func TestAddSkipsDuplicateOfLastEntry(t *testing.T) {
	s, _ := newTestStore(t, 10)

	s.Add("SELECT 1", 5, intPtr(1), "master")
	s.Add("  SELECT 1  ", 7, intPtr(1), "master")

	assert.Equal(t, 1, s.Len())
}

func TestAddAllowsNonAdjacentDuplicate(t *testing.T) {
	s, _ := newTestStore(t, 10)

	s.Add("SELECT 1", 5, nil, "master")
	s.Add("SELECT 2", 5, nil, "master")
	s.Add("SELECT 1", 5, nil, "master")

	assert.Equal(t, 3, s.Len())
}

func TestAddEvictsOldestBeyondCap(t *testing.T) {
	s, _ := newTestStore(t, 3)

	for i := 0; i < 5; i++ {
		s.Add(fmt.Sprintf("SELECT %d", i), 1, nil, "master")
	}

	require.Equal(t, 3, s.Len())
	entries := s.Entries()
	assert.Equal(t, "SELECT 2", entries[0].Query)
	assert.Equal(t, "SELECT 4", entries[2].Query)
}

func TestNonPositiveCapFallsBackToDefault(t *testing.T) {
	for _, limit := range []int{0, -5} {
		s := New(limit, filepath.Join(t.TempDir(), "history.json"))

		s.Add("SELECT 1", 1, nil, "master")
		s.Add("SELECT 2", 1, nil, "master")

		assert.Equal(t, 2, s.Len())
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	s, _ := newTestStore(t, 10)

	s.Add("SELECT * FROM Orders", 1, nil, "master")
	s.Add("UPDATE Customers SET x = 1", 1, nil, "master")

	got := s.Search("orders")
	require.Len(t, got, 1)
	assert.Equal(t, "SELECT * FROM Orders", got[0].Query)

	assert.Empty(t, s.Search("delete"))
}

func TestPreviousWalksBackAndStopsAtOldest(t *testing.T) {
	s, _ := newTestStore(t, 10)

	s.Add("first", 1, nil, "master")
	s.Add("second", 1, nil, "master")

	assert.Equal(t, "second", s.Previous().Query)
	assert.Equal(t, "first", s.Previous().Query)
	// Cursor stays on the oldest entry.
	assert.Equal(t, "first", s.Previous().Query)
}

func TestNextReturnsNilPastNewest(t *testing.T) {
	s, _ := newTestStore(t, 10)

	s.Add("first", 1, nil, "master")
	s.Add("second", 1, nil, "master")

	assert.Nil(t, s.Next(), "not navigating yet")

	s.Previous() // second
	s.Previous() // first
	got := s.Next()
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Query)
	assert.Nil(t, s.Next())
}

func TestPreviousOnEmptyStore(t *testing.T) {
	s, _ := newTestStore(t, 10)
	assert.Nil(t, s.Previous())
	assert.Nil(t, s.Next())
}

func TestAddResetsNavigation(t *testing.T) {
	s, _ := newTestStore(t, 10)

	s.Add("first", 1, nil, "master")
	s.Previous()
	s.Add("second", 1, nil, "master")

	assert.Equal(t, "second", s.Previous().Query)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := New(10, path)
	s.Add("SELECT 1", 12, intPtr(3), "Northwind")
	s.Add("SELECT 2", 8, nil, "Northwind")

	reloaded := New(10, path)
	require.Equal(t, 2, reloaded.Len())
	entries := reloaded.Entries()
	assert.Equal(t, "SELECT 1", entries[0].Query)
	require.NotNil(t, entries[0].RowCount)
	assert.Equal(t, 3, *entries[0].RowCount)
	assert.Equal(t, "Northwind", entries[1].Database)
}

func TestLoadIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(10, path)
	assert.Zero(t, s.Len())
}

func TestClear(t *testing.T) {
	s, path := newTestStore(t, 10)

	s.Add("SELECT 1", 1, nil, "master")
	s.Clear()

	assert.Zero(t, s.Len())
	assert.Zero(t, New(10, path).Len())
}
