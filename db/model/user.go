package model

type User struct {
	Base
	Name     string           `gorm:"uniqueIndex;not null" json:"name"`
	Email    string           `gorm:"uniqueIndex;not null" json:"email"`
	Pass     string           `gorm:"not null" json:"-"`
	Friends  []*Friendship    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Requests []*FriendRequest `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Hobbies  []*Hobby         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
