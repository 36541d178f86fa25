package auth

import (
	"context"
	"errors"
)

// Identity headers set by the gateway after authentication.
const (
	XUserNameHeader  = "X-User-Name"
	XUserRoleHeader  = "X-User-Role"
	XUserEmailHeader = "X-User-Email"
)

type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

var ErrNoUser = errors.New("no user in context")

type User struct {
	Name  string
	Role  Role
	Email string
}

type userKey struct{}

func SetAuthContext(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func GetUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(userKey{}).(User)
	if !ok || u.Name == "" {
		return User{}, ErrNoUser
	}
	return u, nil
}
