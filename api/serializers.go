package api

import (
	"time"

	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/recommend"
)

// OutUser is a user as other users see it.
type OutUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OutProfile struct {
	OutUser
	Hobbies []string `json:"hobbies"`
}

// OutAccount is the signed in user's own record. The password hash is
// never part of it.
type OutAccount struct {
	OutProfile
	Friends        []string  `json:"friends"`
	FriendRequests []string  `json:"friendRequests"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type OutRecommendation struct {
	OutProfile
	MutualFriends int `json:"mutualFriends"`
	CommonHobbies int `json:"commonHobbies"`
}

func NewOutUser(u *directory.User) OutUser {
	return OutUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

func NewOutProfile(u *directory.User) OutProfile {
	return OutProfile{OutUser: NewOutUser(u), Hobbies: nonNil(u.Hobbies)}
}

func NewOutAccount(u *directory.User) OutAccount {
	return OutAccount{
		OutProfile:     NewOutProfile(u),
		Friends:        nonNil(u.Friends),
		FriendRequests: nonNil(u.FriendRequests),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func NewOutUsers(users []directory.User) []OutUser {
	out := make([]OutUser, len(users))
	for i := range users {
		out[i] = NewOutUser(&users[i])
	}
	return out
}

func NewOutRecommendations(recs []recommend.Recommendation) []OutRecommendation {
	out := make([]OutRecommendation, len(recs))
	for i := range recs {
		out[i] = OutRecommendation{
			OutProfile:    NewOutProfile(&recs[i].User),
			MutualFriends: recs[i].MutualFriends,
			CommonHobbies: recs[i].CommonHobbies,
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
