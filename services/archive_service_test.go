package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"stratusdrive/models"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	entries := map[string]string{}
	for _, file := range zr.File {
		rc, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[file.Name] = string(content)
	}
	return entries
}

func TestWriteArchiveRoundTrip(t *testing.T) {
	f := newFixture()
	root := f.addRoot(t, "root")
	docs := f.addFolder(t, "docs", root.ID)
	a := f.addFile(t, "a.txt", "hello world", docs.ID)
	sub := f.addFolder(t, "sub", docs.ID)
	f.addFile(t, "b.txt", "nested content", sub.ID)

	svc := NewArchiveService(f.repo, f.blobs)
	var buf bytes.Buffer
	err := svc.WriteArchive(context.Background(), &buf, docs, []models.FSO{*a, *sub})
	require.NoError(t, err)

	entries := readArchive(t, buf.Bytes())
	assert.Equal(t, "hello world", entries["a.txt"])
	assert.Equal(t, "nested content", entries["sub/b.txt"])
	assert.Contains(t, entries, "sub/")
}

func TestWriteArchiveFolderSelection(t *testing.T) {
	f := newFixture()
	root := f.addRoot(t, "root")
	docs := f.addFolder(t, "docs", root.ID)
	f.addFile(t, "a.txt", "x", docs.ID)

	svc := NewArchiveService(f.repo, f.blobs)
	var buf bytes.Buffer
	err := svc.WriteArchive(context.Background(), &buf, root, []models.FSO{*docs})
	require.NoError(t, err)

	entries := readArchive(t, buf.Bytes())
	assert.Contains(t, entries, "docs/")
	assert.Equal(t, "x", entries["docs/a.txt"])
}

func TestWriteArchiveEmptyFolder(t *testing.T) {
	f := newFixture()
	root := f.addRoot(t, "root")
	docs := f.addFolder(t, "docs", root.ID)
	f.addFolder(t, "empty", docs.ID)

	svc := NewArchiveService(f.repo, f.blobs)
	var buf bytes.Buffer
	err := svc.WriteArchive(context.Background(), &buf, root, []models.FSO{*docs})
	require.NoError(t, err)

	entries := readArchive(t, buf.Bytes())
	assert.Contains(t, entries, "docs/")
	assert.Contains(t, entries, "docs/empty/")
}

func TestWriteArchiveSelectionOutsideRoot(t *testing.T) {
	f := newFixture()
	root := f.addRoot(t, "root")
	docs := f.addFolder(t, "docs", root.ID)
	other := f.addFolder(t, "other", root.ID)
	stray := f.addFile(t, "stray.txt", "x", other.ID)

	svc := NewArchiveService(f.repo, f.blobs)
	var buf bytes.Buffer
	err := svc.WriteArchive(context.Background(), &buf, docs, []models.FSO{*stray})
	require.ErrorIs(t, err, ErrBadSelection)
}

func TestWriteArchiveCancelled(t *testing.T) {
	f := newFixture()
	root := f.addRoot(t, "root")
	docs := f.addFolder(t, "docs", root.ID)
	a := f.addFile(t, "a.txt", "x", docs.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewArchiveService(f.repo, f.blobs)
	var buf bytes.Buffer
	err := svc.WriteArchive(ctx, &buf, docs, []models.FSO{*a})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpenFileKnownExtension(t *testing.T) {
	f := newFixture()
	root := f.addRoot(t, "root")
	file := f.addFile(t, "notes.txt", "plain text body", root.ID)

	svc := NewArchiveService(f.repo, f.blobs)
	download, err := svc.OpenFile(context.Background(), file)
	require.NoError(t, err)
	defer download.Body.Close()

	assert.True(t, strings.HasPrefix(download.ContentType, "text/plain"))
	body, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	assert.Equal(t, "plain text body", string(body))
}

func TestOpenFileSniffsUnknownExtension(t *testing.T) {
	f := newFixture()
	root := f.addRoot(t, "root")
	pngHeader := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16)
	file := f.addFile(t, "picture", pngHeader, root.ID)

	svc := NewArchiveService(f.repo, f.blobs)
	download, err := svc.OpenFile(context.Background(), file)
	require.NoError(t, err)
	defer download.Body.Close()

	assert.Equal(t, "image/png", download.ContentType)

	// sniffing must not consume the body
	body, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, string(body))
}
