package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusDraft     = 0
	StatusPublished = 1
)

type Post struct {
	gorm.Model
	Title         string `gorm:"column:title;size:200;not null" json:"title"`
	Slug          string `gorm:"column:slug;size:200;uniqueIndex;not null" json:"slug"`
	AuthorID      uint   `gorm:"column:author_id;not null" json:"author_id"`
	FeaturedImage string `gorm:"column:featured_image;size:255" json:"featured_image,omitempty"`
	Excerpt       string `gorm:"column:excerpt;type:text" json:"excerpt,omitempty"`
	Content       string `gorm:"column:content;type:text;not null" json:"content"`
	Status        int    `gorm:"column:status;default:0" json:"status"`

	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Likes    []Like    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"likes,omitempty"`
}

// Comment author name/email are stamped from the session user at submission
// time, never taken from the request body. Only approved comments render.
type Comment struct {
	gorm.Model
	PostID   uint   `gorm:"column:post_id;not null" json:"post_id"`
	Name     string `gorm:"column:name;size:150;not null" json:"name"`
	Email    string `gorm:"column:email;size:255;not null" json:"email"`
	Body     string `gorm:"column:body;type:text;not null" json:"body"`
	Approved bool   `gorm:"column:approved;default:false" json:"approved"`
}

// Like links a user to a post they endorse. Row existence is the source of
// truth; the unique index keeps concurrent toggles from inserting twice.
// No DeletedAt: an unliked row must vanish for real or it blocks re-liking
// under the unique index.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"column:post_id;not null;uniqueIndex:idx_likes_user_post" json:"post_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
