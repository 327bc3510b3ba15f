package model

import "time"

// Friendship is one side of an edge: an accepted friendship between A and B
// is stored as the rows (A,B) and (B,A).
type Friendship struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	FriendID  string    `gorm:"primaryKey;size:36;index" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendRequest is a pending request from FromID, stored on the recipient.
type FriendRequest struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	FromID    string    `gorm:"primaryKey;size:36;index" json:"from_id"`
	CreatedAt time.Time `json:"created_at"`
}
