package querycache

import (
	"context"
	"time"
)

type Entry struct {
	Key   string `json:"key"`
	Scope Scope  `json:"scope"`
	// Stamp is the context token a tenant-scoped entry was fetched under; empty for platform entries.
	Stamp     string    `json:"stamp"`
	Value     []byte    `json:"value"`
	FetchedAt time.Time `json:"fetchedAt"`
}

type Backend interface {
	Get(ctx context.Context, scope Scope, key string) (Entry, bool, error)
	Set(ctx context.Context, e Entry) error
	Delete(ctx context.Context, scope Scope, key string) error
	// DeleteScope removes every entry of scope and returns how many were removed.
	DeleteScope(ctx context.Context, scope Scope) (int, error)
}
