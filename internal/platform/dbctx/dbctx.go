package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context plus an optional open transaction. Repos
// run against Tx when set and fall back to their own handle otherwise, so the
// same repo code works inside and outside a transaction boundary.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func Background() Context {
	return Context{Ctx: context.Background()}
}
