package models

import (
	"time"
)

// Share is an immutable snapshot of FSO ids published under an opaque
// public key. Later moves or deletes of the underlying nodes are not
// synchronized back; stale ids are filtered out when the share is read.
type Share struct {
	ID        int64     `bson:"_id" json:"id"`
	PublicID  string    `bson:"public_id" json:"public_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	ShareDate time.Time `bson:"share_date" json:"share_date"`
}

// SharedObject links one FSO into a share.
type SharedObject struct {
	ShareID int64 `bson:"share_id" json:"share_id"`
	FsoID   int64 `bson:"fso_id" json:"fso_id"`
}

// ShareDTO is the owner-facing projection of a share with its surviving
// content resolved.
type ShareDTO struct {
	ID        int64     `json:"id"`
	PublicID  string    `json:"public_id"`
	UserID    string    `json:"user_id"`
	ShareDate time.Time `json:"share_date"`
	Content   []FsoDTO  `json:"content"`
}

func NewShareDTO(share *Share) ShareDTO {
	return ShareDTO{
		ID:        share.ID,
		PublicID:  share.PublicID,
		UserID:    share.UserID,
		ShareDate: share.ShareDate,
	}
}

// ShareInfo is the anonymous summary of a share.
type ShareInfo struct {
	Username    string    `json:"username"`
	ShareDate   time.Time `json:"share_date"`
	FolderCount int       `json:"folders_count"`
	FileCount   int       `json:"files_count"`
	TotalSize   int64     `json:"total_size"`
}
