package models

import "time"

// Tag labels communities and user interests.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"size:50;not null;uniqueIndex" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func (Tag) TableName() string {
	return "Tag"
}
