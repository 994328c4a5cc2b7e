package receipt

import "context"

// Store maps receipt ids to awarded points.
type Store interface {
	Put(ctx context.Context, id string, points int) error
	Get(ctx context.Context, id string) (int, bool, error)
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}
