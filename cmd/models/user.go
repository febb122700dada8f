package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username     string `gorm:"column:username;size:150;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"column:email;size:255;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
	FirstName    string `gorm:"column:first_name;size:150" json:"first_name"`
	LastName     string `gorm:"column:last_name;size:150" json:"last_name"`

	Profile *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// Profile holds the editable presentation fields for a user. Exactly one
// row per user; created at registration and repaired on first profile visit.
type Profile struct {
	gorm.Model
	UserID uint   `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Avatar string `gorm:"column:avatar;size:255" json:"avatar"`
	Bio    string `gorm:"column:bio;type:text" json:"bio"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`
}
