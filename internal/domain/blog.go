package domain

import "time"

type BlogPost struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string     `gorm:"size:200;uniqueIndex" json:"slug"`
	Title       string     `gorm:"size:300" json:"title"`
	Excerpt     string     `gorm:"size:1000" json:"excerpt"`
	Content     string     `gorm:"type:text" json:"content"`
	CoverImage  string     `gorm:"size:1024" json:"cover_image"`
	Tags        string     `gorm:"size:500" json:"tags"`
	Status      string     `gorm:"size:20;index;default:'draft'" json:"status"` // draft|published
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}
