package models

import (
	"time"
)

// User owns exactly one drive-root FSO, referenced by DriveID.
type User struct {
	ID                 string    `bson:"_id" json:"id"`
	Username           string    `bson:"username" json:"username"`
	Email              string    `bson:"email" json:"email"`
	PasswordHash       string    `bson:"password_hash" json:"-"`
	DriveID            int64     `bson:"drive_id" json:"drive_id"`
	RefreshToken       string    `bson:"refresh_token,omitempty" json:"-"`
	RefreshTokenExpiry time.Time `bson:"refresh_token_expiry,omitempty" json:"-"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

func (u *User) Caller() Caller {
	return Caller{UserID: u.ID, DriveID: u.DriveID}
}
