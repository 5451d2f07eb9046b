package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"stratusdrive/models"
)

// shareKeyBytes sized so the base64url key is short enough for a link and
// collisions stay negligible at any realistic share count.
const shareKeyBytes = 8

// ShareService is the share registry: immutable snapshots of FSO ids
// published under opaque public keys and readable anonymously.
type ShareService struct {
	shares     ShareRepository
	users      UserRepository
	fsoService *FsoService
}

func NewShareService(shares ShareRepository, users UserRepository, fsoService *FsoService) *ShareService {
	return &ShareService{shares: shares, users: users, fsoService: fsoService}
}

// CreateShare snapshots the selection under a fresh public key. Every node
// must be owned by the caller; ownership is checked here once and trusted
// for the lifetime of the share.
func (s *ShareService) CreateShare(ctx context.Context, fsoList []models.FSO, caller models.Caller) (string, error) {
	if len(fsoList) == 0 {
		return "", fmt.Errorf("create share: %w", ErrBadSelection)
	}
	ids := make([]int64, 0, len(fsoList))
	for i := range fsoList {
		owned, err := s.fsoService.IsOwner(ctx, &fsoList[i], caller)
		if err != nil {
			return "", err
		}
		if !owned {
			return "", fmt.Errorf("share fso %d: %w", fsoList[i].ID, ErrForbidden)
		}
		ids = append(ids, fsoList[i].ID)
	}

	raw := make([]byte, shareKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate share key: %w", err)
	}
	key := base64.RawURLEncoding.EncodeToString(raw)

	share := &models.Share{
		PublicID:  key,
		UserID:    caller.UserID,
		ShareDate: time.Now(),
	}
	if err := s.shares.Insert(ctx, share, ids); err != nil {
		return "", fmt.Errorf("insert share: %w", err)
	}
	return key, nil
}

// GetByPublicID resolves a public key to its share.
func (s *ShareService) GetByPublicID(ctx context.Context, publicID string) (*models.Share, error) {
	share, err := s.shares.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("get share %q: %w", publicID, err)
	}
	return share, nil
}

// Content returns the share's surviving nodes. Ids whose FSO has been
// deleted since the snapshot are dropped silently, never errored.
func (s *ShareService) Content(ctx context.Context, share *models.Share) ([]models.FSO, error) {
	ids, err := s.shares.ObjectIDs(ctx, share.ID)
	if err != nil {
		return nil, fmt.Errorf("get content of share %d: %w", share.ID, err)
	}
	return s.fsoService.GetFsoList(ctx, ids)
}

// ContentDTO resolves the share's content for listing: folders first, names
// sorted within each group, shared folders expanded one level deep.
func (s *ShareService) ContentDTO(ctx context.Context, share *models.Share) ([]models.FsoDTO, error) {
	fsos, err := s.Content(ctx, share)
	if err != nil {
		return nil, err
	}
	dtos := models.NewFsoDTOList(fsos)
	sort.Slice(dtos, func(i, j int) bool {
		if dtos[i].IsFolder != dtos[j].IsFolder {
			return dtos[i].IsFolder
		}
		return dtos[i].Name < dtos[j].Name
	})
	for i := range dtos {
		if !dtos[i].IsFolder {
			continue
		}
		fso, err := s.fsoService.GetFso(ctx, dtos[i].ID)
		if err != nil {
			return nil, err
		}
		children, err := s.fsoService.Content(ctx, fso)
		if err != nil {
			return nil, err
		}
		dtos[i].Content = models.NewFsoDTOList(children)
	}
	return dtos, nil
}

// IsShared reports whether fso is reachable from the share's node set: the
// node itself or one of its ancestors was snapshotted. This replaces the
// drive-root ownership check for anonymous callers.
func (s *ShareService) IsShared(ctx context.Context, share *models.Share, fso *models.FSO) (bool, error) {
	ids, err := s.shares.ObjectIDs(ctx, share.ID)
	if err != nil {
		return false, fmt.Errorf("get content of share %d: %w", share.ID, err)
	}
	shared := make(map[int64]bool, len(ids))
	for _, id := range ids {
		shared[id] = true
	}
	path, err := s.fsoService.FullPath(ctx, fso)
	if err != nil {
		return false, err
	}
	for i := range path {
		if shared[path[i].ID] {
			return true, nil
		}
	}
	return false, nil
}

// Info summarizes a share for anonymous viewers.
func (s *ShareService) Info(ctx context.Context, share *models.Share) (*models.ShareInfo, error) {
	user, err := s.users.GetByID(ctx, share.UserID)
	if err != nil {
		return nil, fmt.Errorf("get owner of share %d: %w", share.ID, err)
	}
	fsos, err := s.Content(ctx, share)
	if err != nil {
		return nil, err
	}
	info := &models.ShareInfo{
		Username:  user.Username,
		ShareDate: share.ShareDate,
	}
	for i := range fsos {
		size, err := s.fsoService.Size(ctx, &fsos[i])
		if err != nil {
			return nil, err
		}
		info.TotalSize += size
		if fsos[i].IsFolder {
			info.FolderCount++
		} else {
			info.FileCount++
		}
	}
	return info, nil
}

// SharesByUser lists the caller's shares with resolved content.
func (s *ShareService) SharesByUser(ctx context.Context, userID string) ([]models.ShareDTO, error) {
	shares, err := s.shares.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list shares of user %s: %w", userID, err)
	}
	dtos := make([]models.ShareDTO, 0, len(shares))
	for i := range shares {
		dto := models.NewShareDTO(&shares[i])
		content, err := s.ContentDTO(ctx, &shares[i])
		if err != nil {
			return nil, err
		}
		dto.Content = content
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// Delete removes the share and its object rows. The underlying FSOs are
// never touched.
func (s *ShareService) Delete(ctx context.Context, share *models.Share, caller models.Caller) error {
	if share.UserID != caller.UserID {
		return fmt.Errorf("delete share %d: %w", share.ID, ErrForbidden)
	}
	if err := s.shares.Delete(ctx, share.ID); err != nil {
		return fmt.Errorf("delete share %d: %w", share.ID, err)
	}
	return nil
}
