package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFile(t.TempDir())
	require.NoError(t, err)

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, KeyConversation)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, KeyConversation, []byte(`[{"id":"1"}]`)))
			got, err := s.Get(ctx, KeyConversation)
			require.NoError(t, err)
			require.JSONEq(t, `[{"id":"1"}]`, string(got))

			require.NoError(t, s.Put(ctx, KeyConversation, []byte(`[]`)))
			got, err = s.Get(ctx, KeyConversation)
			require.NoError(t, err)
			require.Equal(t, "[]", string(got))

			_, err = s.Get(ctx, KeyCustomPlugins)
			require.ErrorIs(t, err, ErrNotFound, "keys are independent")

			require.NoError(t, s.Delete(ctx, KeyConversation))
			require.NoError(t, s.Delete(ctx, KeyConversation), "deleting a missing key is not an error")
			_, err = s.Get(ctx, KeyConversation)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRejectsInvalidKeys(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a/b", " spaced"} {
				err := s.Put(ctx, key, []byte("x"))
				require.Error(t, err, "key %q", key)
				require.False(t, errors.Is(err, ErrNotFound))
			}
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("abc")
	require.NoError(t, m.Put(ctx, KeyGeminiAPIKey, value))
	value[0] = 'z'

	got, err := m.Get(ctx, KeyGeminiAPIKey)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestFilePutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Put(context.Background(), KeyCustomPlugins, []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "customPlugins.json", entries[0].Name())
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    string
		wantErr bool
	}{
		{name: "file", cfg: config.StorageConfig{Backend: "file", Path: dir}, want: "*store.File"},
		{name: "sqlite dir", cfg: config.StorageConfig{Backend: "sqlite", Path: dir}, want: "*store.SQLite"},
		{name: "sqlite memory", cfg: config.StorageConfig{Backend: "SQLite", Path: ":memory:"}, want: "*store.SQLite"},
		{name: "memory", cfg: config.StorageConfig{Backend: "memory"}, want: "*store.Memory"},
		{name: "unknown", cfg: config.StorageConfig{Backend: "redis"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })

			switch s.(type) {
			case *File:
				require.Equal(t, tc.want, "*store.File")
			case *SQLite:
				require.Equal(t, tc.want, "*store.SQLite")
			case *Memory:
				require.Equal(t, tc.want, "*store.Memory")
			default:
				t.Fatalf("unexpected store type %T", s)
			}
		})
	}

	require.FileExists(t, filepath.Join(dir, defaultDatabase))
}

func TestResolveRootExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	root, err := ResolveRoot("~/data")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "data"), root)
	require.DirExists(t, root)

	root, err = ResolveRoot("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, defaultDataDirName), root)
}
