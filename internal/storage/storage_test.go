package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pet anonymous", PetKey(""), "regenmon-save"},
		{"pet scoped", PetKey("u1"), "regenmon-save-u1"},
		{"coins anonymous", CoinsKey(""), "regenmon-coins-local"},
		{"coins scoped", CoinsKey("u1"), "regenmon-coins-u1"},
		{"history anonymous", HistoryKey("  "), "regenmon-history-local"},
		{"training scoped", TrainingKey("42"), "regenmon-training-42"},
		{"chat anonymous", ChatKey(""), "regenmon-chat"},
		{"memories scoped", MemoryKey("x"), "regenmon-memories-x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	file, err := NewFile(filepath.Join(dir, "files"))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(dir, "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": db,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "regenmon-save-u1", []byte(`{"a":1}`)))
			got, err := s.Get(ctx, "regenmon-save-u1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(got))

			require.NoError(t, s.Set(ctx, "regenmon-save-u1", []byte(`{"a":2}`)))
			got, err = s.Get(ctx, "regenmon-save-u1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(got))

			require.NoError(t, s.Remove(ctx, "regenmon-save-u1"))
			_, err = s.Get(ctx, "regenmon-save-u1")
			assert.True(t, errors.Is(err, ErrNotFound))

			require.NoError(t, s.Remove(ctx, "never-set"))
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Set(ctx, "", []byte("x")))
			assert.Error(t, s.Set(ctx, "../escape", []byte("x")))
			assert.Error(t, s.Set(ctx, "a/b", []byte("x")))
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	type blob struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, s, "k", blob{Name: "Pip"}))

	var got blob
	require.NoError(t, GetJSON(ctx, s, "k", &got))
	assert.Equal(t, "Pip", got.Name)

	require.NoError(t, s.Set(ctx, "bad", []byte("{not json")))
	err := GetJSON(ctx, s, "bad", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	moved, err := Migrate(ctx, s, CoinsKey(""), CoinsKey("u1"))
	require.NoError(t, err)
	assert.False(t, moved, "nothing to migrate")

	require.NoError(t, s.Set(ctx, CoinsKey(""), []byte("250")))
	moved, err = Migrate(ctx, s, CoinsKey(""), CoinsKey("u1"))
	require.NoError(t, err)
	assert.True(t, moved)

	got, err := s.Get(ctx, CoinsKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "250", string(got))
	_, err = s.Get(ctx, CoinsKey(""))
	require.ErrorIs(t, err, ErrNotFound, "the source is moved, not copied")

	moved, err = Migrate(ctx, s, CoinsKey(""), CoinsKey("u2"))
	require.NoError(t, err)
	assert.False(t, moved, "a second scope adopts nothing")
	_, err = s.Get(ctx, CoinsKey("u2"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, CoinsKey(""), []byte("999")))
	moved, err = Migrate(ctx, s, CoinsKey(""), CoinsKey("u1"))
	require.NoError(t, err)
	assert.False(t, moved, "existing scoped value wins")
	got, err = s.Get(ctx, CoinsKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "250", string(got))
}

// stickyStore refuses to delete one key.
type stickyStore struct {
	*Memory
	sticky string
}

func (s stickyStore) Remove(ctx context.Context, key string) error {
	if key == s.sticky {
		return errors.New("read-only")
	}
	return s.Memory.Remove(ctx, key)
}

func TestMigrateUndoesCopyWhenSourceStays(t *testing.T) {
	ctx := context.Background()
	s := stickyStore{Memory: NewMemory(), sticky: CoinsKey("")}
	require.NoError(t, s.Set(ctx, CoinsKey(""), []byte("250")))

	moved, err := Migrate(ctx, s, CoinsKey(""), CoinsKey("u1"))
	require.Error(t, err)
	assert.False(t, moved)
	_, err = s.Get(ctx, CoinsKey("u1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	s, closer, err := Open("file", dir)
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)
	require.NoError(t, closer.Close())

	s, closer, err = Open("sqlite", dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, closer.Close())

	_, _, err = Open("redis", dir)
	assert.Error(t, err)
}
