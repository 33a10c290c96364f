package auth

import (
	"context"

	"tunefeed/domain"
)

const (
	userKey privateKey = "user"
)

type privateKey string

// SetUser returns a copy of ctx that carries the signed in user.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the signed in user of ctx, or nil if there is none.
func GetUser(ctx context.Context) *domain.User {
	if temp := ctx.Value(userKey); temp != nil {
		if user, ok := temp.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// UserID returns the ID of the signed in user of ctx, or 0 if there is none.
func UserID(ctx context.Context) int {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return 0
}
