package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stratusdrive/models"

	"go.uber.org/zap"
)

// maxWalkDepth caps every ancestor walk. A well-formed tree never comes
// close; hitting the cap means the stored parent chain is corrupt and is
// reported as a storage failure instead of looping forever.
const maxWalkDepth = 256

// FsoService is the tree engine: ownership checks, path reconstruction,
// recursive size, move with cycle detection and recursive delete.
type FsoService struct {
	repo  FsoRepository
	blobs BlobStore
}

func NewFsoService(repo FsoRepository, blobs BlobStore) *FsoService {
	return &FsoService{repo: repo, blobs: blobs}
}

// GetFso loads a single node.
func (s *FsoService) GetFso(ctx context.Context, id int64) (*models.FSO, error) {
	fso, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get fso %d: %w", id, err)
	}
	return fso, nil
}

// GetFsoList loads the nodes that still exist among ids; missing ids are
// dropped without error.
func (s *FsoService) GetFsoList(ctx context.Context, ids []int64) ([]models.FSO, error) {
	fsos, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get fso list: %w", err)
	}
	return fsos, nil
}

// FullPath returns the chain from the drive root down to fso, fso included.
func (s *FsoService) FullPath(ctx context.Context, fso *models.FSO) ([]models.FSO, error) {
	path := []models.FSO{*fso}
	current := fso
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxWalkDepth {
			return nil, fmt.Errorf("parent chain of fso %d exceeds %d levels: %w", fso.ID, maxWalkDepth, ErrStorage)
		}
		parent, err := s.repo.GetByID(ctx, *current.ParentID)
		if err != nil {
			return nil, fmt.Errorf("resolve parent of fso %d: %w", current.ID, err)
		}
		path = append(path, *parent)
		current = parent
	}
	// walked leaf→root, callers want root first
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// rootOf walks parent links until the drive root.
func (s *FsoService) rootOf(ctx context.Context, fso *models.FSO) (*models.FSO, error) {
	current := fso
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxWalkDepth {
			return nil, fmt.Errorf("parent chain of fso %d exceeds %d levels: %w", fso.ID, maxWalkDepth, ErrStorage)
		}
		parent, err := s.repo.GetByID(ctx, *current.ParentID)
		if err != nil {
			return nil, fmt.Errorf("resolve parent of fso %d: %w", current.ID, err)
		}
		current = parent
	}
	return current, nil
}

// IsOwner reports whether fso sits under the caller's drive root.
func (s *FsoService) IsOwner(ctx context.Context, fso *models.FSO, caller models.Caller) (bool, error) {
	root, err := s.rootOf(ctx, fso)
	if err != nil {
		return false, err
	}
	return root.ID == caller.DriveID, nil
}

// Content lists the direct children of a folder.
func (s *FsoService) Content(ctx context.Context, folder *models.FSO) ([]models.FSO, error) {
	if !folder.IsFolder {
		return nil, fmt.Errorf("fso %d: %w", folder.ID, ErrNotAFolder)
	}
	children, err := s.repo.Children(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("list folder %d: %w", folder.ID, err)
	}
	return children, nil
}

// Size returns a file's byte length or a folder's recursive total, computed
// fresh on every call.
func (s *FsoService) Size(ctx context.Context, fso *models.FSO) (int64, error) {
	if !fso.IsFolder {
		return fso.FileSize, nil
	}
	children, err := s.repo.Children(ctx, fso.ID)
	if err != nil {
		return 0, fmt.Errorf("size of folder %d: %w", fso.ID, err)
	}
	var total int64
	for i := range children {
		size, err := s.Size(ctx, &children[i])
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}

// CreateFolder adds an empty folder under a parent owned by the caller.
func (s *FsoService) CreateFolder(ctx context.Context, name string, parentID int64, caller models.Caller) (*models.FSO, error) {
	parent, err := s.GetFso(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnedFolder(ctx, parent, caller); err != nil {
		return nil, err
	}
	fso := &models.FSO{
		Name:     name,
		ParentID: &parent.ID,
		IsFolder: true,
		Date:     time.Now(),
	}
	if err := s.repo.Insert(ctx, fso); err != nil {
		return nil, fmt.Errorf("insert folder %q: %w", name, err)
	}
	return fso, nil
}

// CreateFile records an uploaded blob as a file node under a parent owned by
// the caller. The blob already exists; handle and size come from the store.
func (s *FsoService) CreateFile(ctx context.Context, name, handle string, size int64, parentID int64, caller models.Caller) (*models.FSO, error) {
	parent, err := s.GetFso(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnedFolder(ctx, parent, caller); err != nil {
		return nil, err
	}
	fso := &models.FSO{
		Name:     name,
		ParentID: &parent.ID,
		FileName: handle,
		FileSize: size,
		Date:     time.Now(),
	}
	if err := s.repo.Insert(ctx, fso); err != nil {
		return nil, fmt.Errorf("insert file %q: %w", name, err)
	}
	return fso, nil
}

// CreateRoot makes a parentless drive-root folder. Called once per user at
// registration.
func (s *FsoService) CreateRoot(ctx context.Context, name string) (*models.FSO, error) {
	fso := &models.FSO{
		Name:     name,
		IsFolder: true,
		Date:     time.Now(),
	}
	if err := s.repo.Insert(ctx, fso); err != nil {
		return nil, fmt.Errorf("insert drive root: %w", err)
	}
	return fso, nil
}

// Rename changes the display name of a node owned by the caller.
func (s *FsoService) Rename(ctx context.Context, id int64, newName string, caller models.Caller) (*models.FSO, error) {
	fso, err := s.GetFso(ctx, id)
	if err != nil {
		return nil, err
	}
	owned, err := s.IsOwner(ctx, fso, caller)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("rename fso %d: %w", id, ErrForbidden)
	}
	fso.Name = newName
	fso.Date = time.Now()
	if err := s.repo.Update(ctx, fso); err != nil {
		return nil, fmt.Errorf("rename fso %d: %w", id, err)
	}
	return fso, nil
}

// Move reparents fso under dest. Fails with ErrNotAFolder when dest is a
// file and with ErrCycle when dest is fso itself or any of its descendants;
// the cycle check walks ancestors from dest, which is cheap for the common
// shallow destination.
func (s *FsoService) Move(ctx context.Context, fso, dest *models.FSO) error {
	if !dest.IsFolder {
		return fmt.Errorf("move fso %d into %d: %w", fso.ID, dest.ID, ErrNotAFolder)
	}
	current := dest
	for depth := 0; ; depth++ {
		if current.ID == fso.ID {
			return fmt.Errorf("move fso %d into %d: %w", fso.ID, dest.ID, ErrCycle)
		}
		if current.ParentID == nil {
			break
		}
		if depth >= maxWalkDepth {
			return fmt.Errorf("parent chain of fso %d exceeds %d levels: %w", dest.ID, maxWalkDepth, ErrStorage)
		}
		parent, err := s.repo.GetByID(ctx, *current.ParentID)
		if err != nil {
			return fmt.Errorf("resolve parent of fso %d: %w", current.ID, err)
		}
		current = parent
	}
	fso.ParentID = &dest.ID
	if err := s.repo.Update(ctx, fso); err != nil {
		return fmt.Errorf("move fso %d: %w", fso.ID, err)
	}
	return nil
}

// MoveMany moves each id under dest independently. A node failing its
// ownership check or its individual move lands in the failed list while the
// rest proceed; there is no atomicity across the batch.
func (s *FsoService) MoveMany(ctx context.Context, ids []int64, destID int64, caller models.Caller) (succeeded, failed []models.FSO, err error) {
	dest, err := s.GetFso(ctx, destID)
	if err != nil {
		return nil, nil, err
	}
	owned, err := s.IsOwner(ctx, dest, caller)
	if err != nil {
		return nil, nil, err
	}
	if !owned {
		return nil, nil, fmt.Errorf("move destination %d: %w", destID, ErrForbidden)
	}
	if !dest.IsFolder {
		return nil, nil, fmt.Errorf("move destination %d: %w", destID, ErrNotAFolder)
	}

	succeeded = []models.FSO{}
	failed = []models.FSO{}
	for _, id := range ids {
		fso, err := s.GetFso(ctx, id)
		if err != nil {
			// racing delete; nothing left to report
			zap.L().Warn("move target vanished", zap.Int64("fso_id", id), zap.Error(err))
			continue
		}
		owned, err := s.IsOwner(ctx, fso, caller)
		if err != nil || !owned {
			failed = append(failed, *fso)
			continue
		}
		if err := s.Move(ctx, fso, dest); err != nil {
			failed = append(failed, *fso)
			continue
		}
		succeeded = append(succeeded, *fso)
	}
	return succeeded, failed, nil
}

// Delete removes fso and every descendant, post-order. File nodes delete
// their blob before their row. Shares referencing deleted nodes keep their
// now-dangling rows; share reads filter them out.
func (s *FsoService) Delete(ctx context.Context, fso *models.FSO) error {
	if fso.IsFolder {
		children, err := s.repo.Children(ctx, fso.ID)
		if err != nil {
			return fmt.Errorf("list folder %d for delete: %w", fso.ID, err)
		}
		for i := range children {
			if err := s.Delete(ctx, &children[i]); err != nil {
				return err
			}
		}
	} else if fso.FileName != "" {
		if err := s.blobs.Delete(ctx, fso.FileName); err != nil {
			return fmt.Errorf("delete blob of fso %d: %w", fso.ID, err)
		}
	}
	if err := s.repo.Delete(ctx, fso.ID); err != nil {
		return fmt.Errorf("delete fso %d: %w", fso.ID, err)
	}
	return nil
}

// DeleteMany deletes each owned id, best effort. Non-owned and already-gone
// ids are skipped silently; storage failures are logged and do not abort the
// rest of the batch.
func (s *FsoService) DeleteMany(ctx context.Context, ids []int64, caller models.Caller) {
	for _, id := range ids {
		fso, err := s.GetFso(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				zap.L().Error("delete lookup failed", zap.Int64("fso_id", id), zap.Error(err))
			}
			continue
		}
		owned, err := s.IsOwner(ctx, fso, caller)
		if err != nil {
			zap.L().Error("delete ownership check failed", zap.Int64("fso_id", id), zap.Error(err))
			continue
		}
		if !owned {
			continue
		}
		if err := s.Delete(ctx, fso); err != nil {
			zap.L().Error("delete failed", zap.Int64("fso_id", id), zap.Error(err))
		}
	}
}

// CheckCommonRoot finds the deepest node that is a proper ancestor of every
// selected node. It returns nil when the selection is empty or spans more
// than one drive; callers must treat nil as an invalid selection.
func (s *FsoService) CheckCommonRoot(ctx context.Context, fsos []models.FSO) (*models.FSO, error) {
	if len(fsos) == 0 {
		return nil, nil
	}
	paths := make([][]models.FSO, len(fsos))
	for i := range fsos {
		path, err := s.FullPath(ctx, &fsos[i])
		if err != nil {
			return nil, err
		}
		paths[i] = path[:len(path)-1] // proper ancestors only
	}
	var common *models.FSO
	for level := 0; ; level++ {
		for _, path := range paths {
			if level >= len(path) || path[level].ID != paths[0][level].ID {
				return common, nil
			}
		}
		common = &paths[0][level]
	}
}

func (s *FsoService) requireOwnedFolder(ctx context.Context, fso *models.FSO, caller models.Caller) error {
	if !fso.IsFolder {
		return fmt.Errorf("fso %d: %w", fso.ID, ErrNotAFolder)
	}
	owned, err := s.IsOwner(ctx, fso, caller)
	if err != nil {
		return err
	}
	if !owned {
		return fmt.Errorf("fso %d: %w", fso.ID, ErrForbidden)
	}
	return nil
}
