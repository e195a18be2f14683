// Package store persists the session user between runs. It is the only
// durable client-side state.
package store

import (
	"context"
	"errors"
	"fmt"

	"medibook-console/internal/model"
)

var (
	ErrNotFound = errors.New("no stored session")
	ErrCorrupt  = errors.New("store: stored session is unreadable")
)

type Store interface {
	Load(ctx context.Context) (*model.User, error)
	Save(ctx context.Context, u *model.User) error
	Clear(ctx context.Context) error
	Close() error
}

const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Options struct {
	Driver      string
	Profile     string
	Dir         string
	Key         []byte
	RedisURL    string
	DatabaseURL string
}

// Open returns the store selected by o.Driver.
func Open(ctx context.Context, o Options) (Store, error) {
	if o.Profile == "" {
		o.Profile = "default"
	}
	switch o.Driver {
	case DriverFile, "":
		return NewFile(o.Dir, o.Profile, o.Key)
	case DriverRedis:
		return NewRedis(ctx, o.RedisURL, o.Profile)
	case DriverPostgres:
		return NewPostgres(ctx, o.DatabaseURL, o.Profile)
	case DriverMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("store: unknown driver %q", o.Driver)
}
