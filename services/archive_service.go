package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"stratusdrive/models"
	"stratusdrive/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// sniffLen is how many leading bytes feed content-type detection when the
// file extension maps to nothing.
const sniffLen = 3072

// Download is a single-file download: content type plus the blob stream.
type Download struct {
	ContentType string
	Body        io.ReadCloser
}

// ArchiveService materializes a multi-node selection into one downloadable
// stream: the raw blob for a lone file, a zip for everything else. Entries
// are written one at a time so large trees never get buffered in memory.
type ArchiveService struct {
	repo  FsoRepository
	blobs BlobStore
}

func NewArchiveService(repo FsoRepository, blobs BlobStore) *ArchiveService {
	return &ArchiveService{repo: repo, blobs: blobs}
}

// OpenFile streams one file node. Content type comes from the extension
// mapping, or from sniffing the first bytes when the extension is unknown.
func (s *ArchiveService) OpenFile(ctx context.Context, fso *models.FSO) (*Download, error) {
	rc, err := s.blobs.Open(ctx, fso.FileName)
	if err != nil {
		return nil, fmt.Errorf("open blob of fso %d: %w", fso.ID, err)
	}
	if contentType := utils.MimeByName(fso.Name); contentType != "" {
		return &Download{ContentType: contentType, Body: rc}, nil
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		rc.Close()
		return nil, fmt.Errorf("sniff blob of fso %d: %w", fso.ID, err)
	}
	contentType := mimetype.Detect(header[:n]).String()
	return &Download{
		ContentType: contentType,
		Body: struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(header[:n]), rc), rc},
	}, nil
}

// WriteArchive streams a zip of the selection to w. Every entry path is
// relative to root, which must be a common ancestor of all selected nodes
// (CheckCommonRoot guarantees that). Folders become explicit directory
// entries, empty ones included, and are deduplicated.
func (s *ArchiveService) WriteArchive(ctx context.Context, w io.Writer, root *models.FSO, selection []models.FSO) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	dirs := make(map[string]bool)
	for i := range selection {
		relPath, err := s.relativePath(ctx, &selection[i], root.ID)
		if err != nil {
			zw.Close()
			return err
		}
		if err := s.addFso(ctx, zw, &selection[i], relPath, dirs); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// addFso writes one node into the archive and recurses into folders.
func (s *ArchiveService) addFso(ctx context.Context, zw *zip.Writer, fso *models.FSO, relPath string, dirs map[string]bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !fso.IsFolder {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     relPath,
			Method:   zip.Deflate,
			Modified: fso.Date,
		})
		if err != nil {
			return fmt.Errorf("create archive entry %q: %w", relPath, err)
		}
		rc, err := s.blobs.Open(ctx, fso.FileName)
		if err != nil {
			return fmt.Errorf("open blob of fso %d: %w", fso.ID, err)
		}
		buffer := make([]byte, 32*1024)
		_, err = io.CopyBuffer(entry, rc, buffer)
		rc.Close()
		if err != nil {
			return fmt.Errorf("stream fso %d into archive: %w", fso.ID, err)
		}
		return nil
	}

	if !dirs[relPath] {
		dirs[relPath] = true
		_, err := zw.CreateHeader(&zip.FileHeader{
			Name:     relPath + "/",
			Modified: fso.Date,
		})
		if err != nil {
			return fmt.Errorf("create archive directory %q: %w", relPath, err)
		}
	}

	children, err := s.repo.Children(ctx, fso.ID)
	if err != nil {
		return fmt.Errorf("list folder %d for archive: %w", fso.ID, err)
	}
	for i := range children {
		if err := s.addFso(ctx, zw, &children[i], path.Join(relPath, children[i].Name), dirs); err != nil {
			return err
		}
	}
	return nil
}

// relativePath joins folder names from root (exclusive) down to fso.
func (s *ArchiveService) relativePath(ctx context.Context, fso *models.FSO, rootID int64) (string, error) {
	names := []string{fso.Name}
	current := fso
	for depth := 0; ; depth++ {
		if current.ParentID == nil {
			return "", fmt.Errorf("fso %d is not under the selection root: %w", fso.ID, ErrBadSelection)
		}
		if *current.ParentID == rootID {
			break
		}
		if depth >= maxWalkDepth {
			return "", fmt.Errorf("parent chain of fso %d exceeds %d levels: %w", fso.ID, maxWalkDepth, ErrStorage)
		}
		parent, err := s.repo.GetByID(ctx, *current.ParentID)
		if err != nil {
			return "", fmt.Errorf("resolve parent of fso %d: %w", current.ID, err)
		}
		names = append(names, parent.Name)
		current = parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return path.Join(names...), nil
}
