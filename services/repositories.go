package services

import (
	"context"
	"io"

	"stratusdrive/models"
)

// FsoRepository is the persistent store of tree nodes. Implementations must
// return ErrNotFound (possibly wrapped) from GetByID when the id does not
// resolve, and must treat GetByIDs as best-effort: ids with no backing row
// are silently dropped from the result.
type FsoRepository interface {
	GetByID(ctx context.Context, id int64) (*models.FSO, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.FSO, error)
	Children(ctx context.Context, parentID int64) ([]models.FSO, error)
	Insert(ctx context.Context, fso *models.FSO) error
	Update(ctx context.Context, fso *models.FSO) error
	Delete(ctx context.Context, id int64) error
}

// ShareRepository persists shares and their object rows.
type ShareRepository interface {
	Insert(ctx context.Context, share *models.Share, fsoIDs []int64) error
	GetByPublicID(ctx context.Context, publicID string) (*models.Share, error)
	GetByUser(ctx context.Context, userID string) ([]models.Share, error)
	ObjectIDs(ctx context.Context, shareID int64) ([]int64, error)
	RemoveObjects(ctx context.Context, shareID int64, fsoIDs []int64) error
	Delete(ctx context.Context, shareID int64) error
}

// UserRepository persists users. Username and email lookups are
// case-insensitive.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// BlobStore is the external byte-storage collaborator. Create generates an
// opaque handle under the owning user's prefix; the core never interprets it.
type BlobStore interface {
	Create(ctx context.Context, userID string, r io.Reader) (handle string, size int64, err error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
}
