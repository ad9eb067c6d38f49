package staging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResetRemovesPriorContents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pulled_screenshots")
	writeFile(t, filepath.Join(dir, "old.png"), "stale")
	writeFile(t, filepath.Join(dir, "nested", "older.png"), "stale")

	require.NoError(t, Reset(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory should be empty after Reset")
}

func TestResetCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "staging")

	require.NoError(t, Reset(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.png"), "b")
	writeFile(t, filepath.Join(dir, "a.PNG"), "a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "n")
	writeFile(t, filepath.Join(dir, "screenshots", "c.png"), "c")
	writeFile(t, filepath.Join(dir, "screenshots", "d.jpg"), "d")

	entries, err := List(dir, []string{".png"})
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.PNG", "b.png", "screenshots/c.png"}, names)
	assert.Equal(t, int64(1), entries[0].Size)
	assert.Equal(t, filepath.Join(dir, "b.png"), entries[1].Path)
}

func TestListWithoutFilterReturnsAllFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.png"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "n")

	entries, err := List(dir, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestListEmptyDirectory(t *testing.T) {
	entries, err := List(t.TempDir(), []string{".png"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListMissingDirectory(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "absent"), []string{".png"})
	assert.Error(t, err)
}

func TestLockIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pulled_screenshots")

	first := NewLock(dir)
	require.NoError(t, first.TryLock())
	defer first.Unlock()

	second := NewLock(dir)
	err := second.TryLock()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBusy), "expected ErrBusy, got %v", err)

	require.NoError(t, first.Unlock())
	require.NoError(t, second.TryLock())
	require.NoError(t, second.Unlock())
}

func TestLockSurvivesReset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pulled_screenshots")

	lock := NewLock(dir)
	require.NoError(t, lock.TryLock())
	defer lock.Unlock()

	require.NoError(t, Reset(dir))

	_, err := os.Stat(lock.Path())
	assert.NoError(t, err, "lock file must live outside the staging directory")
	assert.Equal(t, dir+".lock", lock.Path())
}
