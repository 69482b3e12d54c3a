package pager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileNameRoundTrip(t *testing.T) {
	name := FileName(42, "cluster")
	require.Equal(t, "cluster-00042.cq", name)

	id, err := ParseClusterID(name, "cluster")
	require.NoError(t, err)
	require.Equal(t, uint32(42), id)
}

func TestAppendAndReadAt(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, 1, "cluster")

	p, err := Open(path, 1, false, nil)
	require.NoError(t, err)
	defer p.Close()

	off1, err := p.Append([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, int64(0), off1)

	off2, err := p.Append([]byte("world"))
	require.NoError(t, err)
	require.Equal(t, int64(5), off2)

	buf := make([]byte, 5)
	n, err := p.ReadAt(buf, off2)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	require.Equal(t, int64(10), p.Size())
}

func TestOpenResumesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster-00001.cq")

	p1, err := Open(path, 1, false, nil)
	require.NoError(t, err)
	_, err = p1.Append([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, p1.Close())

	p2, err := Open(path, 1, false, nil)
	require.NoError(t, err)
	defer p2.Close()
	require.Equal(t, int64(3), p2.Size())

	off, err := p2.Append([]byte("def"))
	require.NoError(t, err)
	require.Equal(t, int64(3), off)
}

func TestReadOnlyPagerRejectsAppend(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, 1, "cluster")

	p1, err := Open(path, 1, false, nil)
	require.NoError(t, err)
	require.NoError(t, p1.Close())

	p2, err := Open(path, 1, true, nil)
	require.NoError(t, err)
	defer p2.Close()

	_, err = p2.Append([]byte("x"))
	require.Error(t, err)
}
