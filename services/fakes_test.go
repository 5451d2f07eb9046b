package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"stratusdrive/models"

	"github.com/stretchr/testify/require"
)

// In-memory repositories backing the service tests. They mirror the Mongo
// implementations closely enough to exercise every service path, including
// the not-found wrapping contracts.

type fakeFsoRepo struct {
	nextID int64
	fsos   map[int64]models.FSO
}

func newFakeFsoRepo() *fakeFsoRepo {
	return &fakeFsoRepo{fsos: map[int64]models.FSO{}}
}

func (r *fakeFsoRepo) GetByID(_ context.Context, id int64) (*models.FSO, error) {
	fso, ok := r.fsos[id]
	if !ok {
		return nil, fmt.Errorf("fso %d: %w", id, ErrNotFound)
	}
	return &fso, nil
}

func (r *fakeFsoRepo) GetByIDs(_ context.Context, ids []int64) ([]models.FSO, error) {
	fsos := []models.FSO{}
	for _, id := range ids {
		if fso, ok := r.fsos[id]; ok {
			fsos = append(fsos, fso)
		}
	}
	return fsos, nil
}

func (r *fakeFsoRepo) Children(_ context.Context, parentID int64) ([]models.FSO, error) {
	children := []models.FSO{}
	for _, fso := range r.fsos {
		if fso.ParentID != nil && *fso.ParentID == parentID {
			children = append(children, fso)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}

func (r *fakeFsoRepo) Insert(_ context.Context, fso *models.FSO) error {
	r.nextID++
	fso.ID = r.nextID
	r.fsos[fso.ID] = *fso
	return nil
}

func (r *fakeFsoRepo) Update(_ context.Context, fso *models.FSO) error {
	if _, ok := r.fsos[fso.ID]; !ok {
		return fmt.Errorf("fso %d: %w", fso.ID, ErrNotFound)
	}
	r.fsos[fso.ID] = *fso
	return nil
}

func (r *fakeFsoRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.fsos[id]; !ok {
		return fmt.Errorf("fso %d: %w", id, ErrNotFound)
	}
	delete(r.fsos, id)
	return nil
}

type fakeBlobStore struct {
	nextID  int
	blobs   map[string][]byte
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (s *fakeBlobStore) Create(_ context.Context, userID string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	s.nextID++
	handle := fmt.Sprintf("users/%s/blob-%d", userID, s.nextID)
	s.blobs[handle] = data
	return handle, int64(len(data)), nil
}

func (s *fakeBlobStore) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	data, ok := s.blobs[handle]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", handle)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(_ context.Context, handle string) error {
	if _, ok := s.blobs[handle]; !ok {
		return fmt.Errorf("blob %s not found", handle)
	}
	delete(s.blobs, handle)
	s.deleted = append(s.deleted, handle)
	return nil
}

type fakeShareRepo struct {
	nextID  int64
	shares  map[int64]models.Share
	objects map[int64][]int64
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{shares: map[int64]models.Share{}, objects: map[int64][]int64{}}
}

func (r *fakeShareRepo) Insert(_ context.Context, share *models.Share, fsoIDs []int64) error {
	r.nextID++
	share.ID = r.nextID
	r.shares[share.ID] = *share
	r.objects[share.ID] = append([]int64{}, fsoIDs...)
	return nil
}

func (r *fakeShareRepo) GetByPublicID(_ context.Context, publicID string) (*models.Share, error) {
	for _, share := range r.shares {
		if share.PublicID == publicID {
			return &share, nil
		}
	}
	return nil, fmt.Errorf("share %q: %w", publicID, ErrNotFound)
}

func (r *fakeShareRepo) GetByUser(_ context.Context, userID string) ([]models.Share, error) {
	shares := []models.Share{}
	for _, share := range r.shares {
		if share.UserID == userID {
			shares = append(shares, share)
		}
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].ID < shares[j].ID })
	return shares, nil
}

func (r *fakeShareRepo) ObjectIDs(_ context.Context, shareID int64) ([]int64, error) {
	return append([]int64{}, r.objects[shareID]...), nil
}

func (r *fakeShareRepo) RemoveObjects(_ context.Context, shareID int64, fsoIDs []int64) error {
	remove := map[int64]bool{}
	for _, id := range fsoIDs {
		remove[id] = true
	}
	kept := []int64{}
	for _, id := range r.objects[shareID] {
		if !remove[id] {
			kept = append(kept, id)
		}
	}
	r.objects[shareID] = kept
	return nil
}

func (r *fakeShareRepo) Delete(_ context.Context, shareID int64) error {
	if _, ok := r.shares[shareID]; !ok {
		return fmt.Errorf("share %d: %w", shareID, ErrNotFound)
	}
	delete(r.shares, shareID)
	delete(r.objects, shareID)
	return nil
}

type fakeUserRepo struct {
	users map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]models.User{}}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
}

func (r *fakeUserRepo) Insert(_ context.Context, user *models.User) error {
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	r.users[user.ID] = *user
	return nil
}

// fixture wires a tree engine against fresh fakes and offers shorthand
// builders for trees.
type fixture struct {
	repo  *fakeFsoRepo
	blobs *fakeBlobStore
	svc   *FsoService
}

func newFixture() *fixture {
	repo := newFakeFsoRepo()
	blobs := newFakeBlobStore()
	return &fixture{repo: repo, blobs: blobs, svc: NewFsoService(repo, blobs)}
}

func (f *fixture) addRoot(t *testing.T, name string) *models.FSO {
	t.Helper()
	root, err := f.svc.CreateRoot(context.Background(), name)
	require.NoError(t, err)
	return root
}

func (f *fixture) addFolder(t *testing.T, name string, parentID int64) *models.FSO {
	t.Helper()
	fso := &models.FSO{Name: name, ParentID: &parentID, IsFolder: true, Date: time.Now()}
	require.NoError(t, f.repo.Insert(context.Background(), fso))
	return fso
}

func (f *fixture) addFile(t *testing.T, name, content string, parentID int64) *models.FSO {
	t.Helper()
	handle, size, err := f.blobs.Create(context.Background(), "u1", strings.NewReader(content))
	require.NoError(t, err)
	fso := &models.FSO{Name: name, ParentID: &parentID, FileName: handle, FileSize: size, Date: time.Now()}
	require.NoError(t, f.repo.Insert(context.Background(), fso))
	return fso
}
