package models

import (
	"time"
)

// FSO is a single node of a user's file tree: either a folder or a file.
// Files carry an opaque blob-store handle in FileName; folders never do.
// A node with a nil ParentID is a drive root and belongs to exactly one user.
type FSO struct {
	ID       int64     `bson:"_id" json:"id"`
	Name     string    `bson:"name" json:"name"`
	ParentID *int64    `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	IsFolder bool      `bson:"is_folder" json:"is_folder"`
	FileName string    `bson:"file_name,omitempty" json:"-"`
	FileSize int64     `bson:"file_size,omitempty" json:"file_size"`
	Date     time.Time `bson:"date" json:"date"`
}

// IsRoot reports whether the node is a drive root.
func (f *FSO) IsRoot() bool {
	return f.ParentID == nil
}

// FsoDTO is the API projection of an FSO. Content is populated one level
// deep for share listings and left nil everywhere else.
type FsoDTO struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	ParentID *int64    `json:"parent_id,omitempty"`
	IsFolder bool      `json:"is_folder"`
	FileSize int64     `json:"file_size"`
	Date     time.Time `json:"date"`
	Content  []FsoDTO  `json:"content,omitempty"`
}

func NewFsoDTO(fso *FSO) FsoDTO {
	return FsoDTO{
		ID:       fso.ID,
		Name:     fso.Name,
		ParentID: fso.ParentID,
		IsFolder: fso.IsFolder,
		FileSize: fso.FileSize,
		Date:     fso.Date,
	}
}

func NewFsoDTOList(fsos []FSO) []FsoDTO {
	dtos := make([]FsoDTO, 0, len(fsos))
	for i := range fsos {
		dtos = append(dtos, NewFsoDTO(&fsos[i]))
	}
	return dtos
}

// Caller is the resolved identity a core operation runs under. DriveID is
// the caller's drive-root FSO id; every ownership check compares against it.
type Caller struct {
	UserID  string
	DriveID int64
}
