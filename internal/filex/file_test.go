package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	got, err := ExpandPath("  '~/pics/a.jpg' ")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "pics", "a.jpg"), got)

	got, err = ExpandPath(`"/tmp/x.m4a"`)
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.m4a", got)

	got, err = ExpandPath("   ")
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestReadLimited(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(p, []byte("12345"), 0o600))

	data, err := ReadLimited(p, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("12345"), data)

	_, err = ReadLimited(p, 4)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestReadLimited_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadLimited(filepath.Join(dir, "missing"), 10)
	require.Error(t, err)

	_, err = ReadLimited(dir, 10)
	require.Error(t, err, "directories are rejected")
}
