package model

type Hobby struct {
	UserID string `gorm:"primaryKey;size:36" json:"user_id"`
	Name   string `gorm:"primaryKey;index" json:"name"`
}
