package services

import (
	"context"
	"testing"
	"time"

	"stratusdrive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shareFixture struct {
	*fixture
	shares *fakeShareRepo
	users  *fakeUserRepo
	svc    *ShareService
}

func newShareFixture() *shareFixture {
	f := newFixture()
	shares := newFakeShareRepo()
	users := newFakeUserRepo()
	return &shareFixture{
		fixture: f,
		shares:  shares,
		users:   users,
		svc:     NewShareService(shares, users, f.svc),
	}
}

func (f *shareFixture) addUser(t *testing.T, id, username string, driveID int64) models.Caller {
	t.Helper()
	user := &models.User{ID: id, Username: username, Email: username + "@example.com", DriveID: driveID, CreatedAt: time.Now()}
	require.NoError(t, f.users.Insert(context.Background(), user))
	return user.Caller()
}

func TestCreateShareKeyShape(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	file := f.addFile(t, "a.txt", "x", root.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	key, err := f.svc.CreateShare(context.Background(), []models.FSO{*file}, caller)
	require.NoError(t, err)

	// 8 random bytes in unpadded base64url
	assert.Len(t, key, 11)
	for _, r := range key {
		valid := r == '-' || r == '_' ||
			(r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		assert.True(t, valid, "unexpected rune %q in share key", r)
	}

	share, err := f.svc.GetByPublicID(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "u1", share.UserID)
}

func TestCreateShareRejectsForeignNodes(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	theirs := f.addRoot(t, "root")
	mine := f.addFile(t, "mine.txt", "x", root.ID)
	foreign := f.addFile(t, "foreign.txt", "y", theirs.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	_, err := f.svc.CreateShare(context.Background(), []models.FSO{*mine, *foreign}, caller)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateShareRejectsEmptySelection(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	caller := f.addUser(t, "u1", "alice", root.ID)

	_, err := f.svc.CreateShare(context.Background(), nil, caller)
	require.ErrorIs(t, err, ErrBadSelection)
}

func TestContentFiltersDanglingIDs(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	a := f.addFile(t, "a.txt", "x", root.ID)
	b := f.addFile(t, "b.txt", "y", root.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	key, err := f.svc.CreateShare(context.Background(), []models.FSO{*a, *b}, caller)
	require.NoError(t, err)
	share, err := f.svc.GetByPublicID(context.Background(), key)
	require.NoError(t, err)

	require.NoError(t, f.fixture.svc.Delete(context.Background(), b))

	content, err := f.svc.Content(context.Background(), share)
	require.NoError(t, err)
	require.Len(t, content, 1)
	assert.Equal(t, a.ID, content[0].ID)
}

func TestContentDTOOrderingAndExpansion(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	zebra := f.addFile(t, "zebra.txt", "z", root.ID)
	apple := f.addFile(t, "apple.txt", "a", root.ID)
	docs := f.addFolder(t, "docs", root.ID)
	inner := f.addFile(t, "inner.txt", "i", docs.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	key, err := f.svc.CreateShare(context.Background(), []models.FSO{*zebra, *apple, *docs}, caller)
	require.NoError(t, err)
	share, err := f.svc.GetByPublicID(context.Background(), key)
	require.NoError(t, err)

	dtos, err := f.svc.ContentDTO(context.Background(), share)
	require.NoError(t, err)
	require.Len(t, dtos, 3)
	assert.Equal(t, "docs", dtos[0].Name, "folders come first")
	assert.Equal(t, "apple.txt", dtos[1].Name)
	assert.Equal(t, "zebra.txt", dtos[2].Name)

	require.Len(t, dtos[0].Content, 1)
	assert.Equal(t, inner.ID, dtos[0].Content[0].ID)
}

func TestIsSharedReachability(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	docs := f.addFolder(t, "docs", root.ID)
	sub := f.addFolder(t, "sub", docs.ID)
	deep := f.addFile(t, "deep.txt", "x", sub.ID)
	sibling := f.addFile(t, "sibling.txt", "y", root.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	key, err := f.svc.CreateShare(context.Background(), []models.FSO{*docs}, caller)
	require.NoError(t, err)
	share, err := f.svc.GetByPublicID(context.Background(), key)
	require.NoError(t, err)

	shared, err := f.svc.IsShared(context.Background(), share, deep)
	require.NoError(t, err)
	assert.True(t, shared, "descendants of a shared folder are reachable")

	shared, err = f.svc.IsShared(context.Background(), share, docs)
	require.NoError(t, err)
	assert.True(t, shared, "the shared node itself is reachable")

	shared, err = f.svc.IsShared(context.Background(), share, sibling)
	require.NoError(t, err)
	assert.False(t, shared, "nodes outside the snapshot are not reachable")
}

func TestShareInfo(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	docs := f.addFolder(t, "docs", root.ID)
	f.addFile(t, "a.txt", "12345", docs.ID)
	loose := f.addFile(t, "b.txt", "1234567890", root.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	key, err := f.svc.CreateShare(context.Background(), []models.FSO{*docs, *loose}, caller)
	require.NoError(t, err)
	share, err := f.svc.GetByPublicID(context.Background(), key)
	require.NoError(t, err)

	info, err := f.svc.Info(context.Background(), share)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, 1, info.FolderCount)
	assert.Equal(t, 1, info.FileCount)
	assert.Equal(t, int64(15), info.TotalSize)
}

func TestSharesByUser(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	a := f.addFile(t, "a.txt", "x", root.ID)
	b := f.addFile(t, "b.txt", "y", root.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	_, err := f.svc.CreateShare(context.Background(), []models.FSO{*a}, caller)
	require.NoError(t, err)
	_, err = f.svc.CreateShare(context.Background(), []models.FSO{*b}, caller)
	require.NoError(t, err)

	shares, err := f.svc.SharesByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, shares, 2)

	shares, err = f.svc.SharesByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestDeleteSharePreservesFsos(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	file := f.addFile(t, "a.txt", "x", root.ID)
	caller := f.addUser(t, "u1", "alice", root.ID)

	key, err := f.svc.CreateShare(context.Background(), []models.FSO{*file}, caller)
	require.NoError(t, err)
	share, err := f.svc.GetByPublicID(context.Background(), key)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), share, caller))

	_, err = f.svc.GetByPublicID(context.Background(), key)
	require.ErrorIs(t, err, ErrNotFound)

	// the shared node itself is untouched
	_, err = f.fixture.svc.GetFso(context.Background(), file.ID)
	assert.NoError(t, err)
}

func TestDeleteShareForbiddenForOtherUser(t *testing.T) {
	f := newShareFixture()
	root := f.addRoot(t, "root")
	theirs := f.addRoot(t, "root")
	file := f.addFile(t, "a.txt", "x", root.ID)
	owner := f.addUser(t, "u1", "alice", root.ID)
	other := f.addUser(t, "u2", "bob", theirs.ID)

	key, err := f.svc.CreateShare(context.Background(), []models.FSO{*file}, owner)
	require.NoError(t, err)
	share, err := f.svc.GetByPublicID(context.Background(), key)
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), share, other)
	require.ErrorIs(t, err, ErrForbidden)
}
