// Package sessions is the table behind the credential store: one row holding
// the access token and the JSON profile cached with it.
package sessions

import "context"

// Record is the stored session row. Profile is the raw JSON of the cached
// user and may be empty.
type Record struct {
	Token   string
	Profile []byte
}

// Repository reads and replaces the single session row. Get returns
// (nil, nil) when nothing is stored.
type Repository interface {
	Get(ctx context.Context) (*Record, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context) error
}
