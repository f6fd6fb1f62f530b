package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sflstudio/internal/catalog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sample() Record {
	return Record{
		Title: "Weekly report summarizer",
		Body:  "Summarize the following report for {audience}: {report}",
		SFL: SFLMetadata{
			Field: "business reporting",
			Tenor: "analyst writing for executives",
			Mode:  "three bullet points",
		},
		Provider:   "openai",
		Model:      "gpt-4o-mini",
		Parameters: catalog.ModelParameters{"temperature": 0.3},
	}
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	created, err := store.Create(sample())
	require.NoError(t, err)

	assert.Contains(t, created.ID, "prompt_")
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestCreateRequiresTitleAndBody(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Create(Record{Body: "text"})
	assert.Error(t, err)
	_, err = store.Create(Record{Title: "title"})
	assert.Error(t, err)
}

func TestGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	created, err := store.Create(sample())
	require.NoError(t, err)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, "business reporting", got.SFL.Field)
	assert.Equal(t, 0.3, got.Parameters["temperature"])
}

func TestGetUnknownID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Get("prompt_missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdatePreservesIdentityAndCreation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	created, err := store.Create(sample())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	update := created
	update.Body = "Rewrite: {report}"
	update.SFL.Mode = "single paragraph"

	updated, err := store.Update(created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	assert.Equal(t, "single paragraph", updated.SFL.Mode)
}

func TestUpdateUnknownID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Update("prompt_missing", sample())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	created, err := store.Create(sample())
	require.NoError(t, err)

	require.NoError(t, store.Delete(created.ID))
	_, err = store.Get(created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.Delete(created.ID), ErrNotFound))
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	first, err := store.Create(sample())
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	second := sample()
	second.Title = "Code review assistant"
	created, err := store.Create(second)
	require.NoError(t, err)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, created.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
}

func TestListSkipsCorruptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Create(sample())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt_bad.json"), []byte("{oops"), 0644))

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Create(sample())
	require.NoError(t, err)

	other := sample()
	other.Title = "Haiku generator"
	other.Body = "Write a haiku about {topic}"
	_, err = store.Create(other)
	require.NoError(t, err)

	matched, err := store.Search("HAIKU")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Haiku generator", matched[0].Title)

	all, err := store.Search("  ")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
