package eventtype

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeCatalogFile is a test helper that writes one event-type YAML file.
func writeCatalogFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileSystemRepository_LoadAndList(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "wildlife_sighting.yaml", `
value: "wildlife_sighting"
display: "Wildlife Sighting"
category: "monitoring"
schema: |
  {"schema": {"$schema": "d4", "properties": {"species": {"type": "string", "title": "Species", "enumNames": {{enum___species___names}}}}}}
`)
	writeCatalogFile(t, dir, "fence_damage.yaml", `
value: "fence_damage"
schema: '{"schema": {"$schema": "d4", "properties": {}}}'
`)
	writeCatalogFile(t, dir, "notes.txt", "not a catalog entry")

	repo, err := NewFileSystemRepository(dir)
	require.NoError(t, err)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "fence_damage", all[0].Value)
	require.Equal(t, "wildlife_sighting", all[1].Value)

	// Display falls back to value when omitted.
	require.Equal(t, "fence_damage", all[0].Display)

	et, err := repo.Get(context.Background(), "wildlife_sighting")
	require.NoError(t, err)
	require.Equal(t, "Wildlife Sighting", et.Display)
	require.Contains(t, et.Schema, "{{enum___species___names}}")
}

func TestFileSystemRepository_MissingDirIsEmpty(t *testing.T) {
	repo, err := NewFileSystemRepository(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestFileSystemRepository_DuplicateValueFails(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "a.yaml", `
value: "dup"
schema: "{}"
`)
	writeCatalogFile(t, dir, "b.yaml", `
value: "dup"
schema: "{}"
`)

	_, err := NewFileSystemRepository(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate value")
}

func TestFileSystemRepository_MalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "bad.yaml", "value: [unterminated")

	_, err := NewFileSystemRepository(dir)
	require.Error(t, err)
}

func TestFileSystemRepository_GetMissing(t *testing.T) {
	repo, err := NewFileSystemRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEventDetails_DetailValues(t *testing.T) {
	d := &EventDetails{EventID: "e1", Data: []byte(`{"event_details": {"species": "lion"}}`)}
	require.Equal(t, map[string]interface{}{"species": "lion"}, d.DetailValues())

	require.Nil(t, (&EventDetails{}).DetailValues())
	require.Nil(t, (*EventDetails)(nil).DetailValues())
	require.Nil(t, (&EventDetails{Data: []byte("not-json")}).DetailValues())
}

func TestMemoryRepositories(t *testing.T) {
	types := NewMemoryRepository()
	types.Put(EventType{Value: "b", Display: "B"})
	types.Put(EventType{Value: "a", Display: "A"})

	all, err := types.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", all[0].Value)
	require.Equal(t, "b", all[1].Value)

	_, err = types.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	details := NewMemoryDetailsRepository()
	details.Put(EventDetails{EventID: "e1", Data: []byte(`{"event_details": {}}`)})
	got, err := details.Get(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, "e1", got.EventID)
}
