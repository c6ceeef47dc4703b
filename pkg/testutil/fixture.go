package testutil

import (
	"context"

	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/xcontext"
)

var (
	User1 = &entity.User{
		ID:           1001,
		Username:     "alice",
		FirstName:    "Alice",
		ReferralCode: "aliceref",
	}

	User2 = &entity.User{
		ID:           1002,
		Username:     "bob",
		FirstName:    "Bob",
		ReferralCode: "bobref",
	}

	Moderator1 = &entity.User{
		ID:           Moderator1ID,
		Username:     "moder",
		ReferralCode: "moderref",
	}

	Admin1 = &entity.User{
		ID:           Admin1ID,
		Username:     "admin",
		ReferralCode: "adminref",
	}

	Users = []*entity.User{User1, User2, Moderator1, Admin1}
)

func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
}

func InsertUsers(ctx context.Context) {
	for _, u := range Users {
		user := *u
		if err := xcontext.DB(ctx).Create(&user).Error; err != nil {
			panic(err)
		}
	}
}
