package domain

import "context"

// SubscriberStore persists the daily subscriber set. Every call reads
// the backing file fresh.
type SubscriberStore interface {
	Load(ctx context.Context) (SubscriberSet, error)
	Save(ctx context.Context, subs SubscriberSet) error
	Add(ctx context.Context, chatID int64) (bool, error)
	Remove(ctx context.Context, chatID int64) (bool, error)
}

// ThemeStore persists ThemeState. Update runs fn on a freshly loaded state
// under the store lock and saves the result when fn reports a change.
type ThemeStore interface {
	Load(ctx context.Context) (ThemeState, error)
	Update(ctx context.Context, fn func(*ThemeState) bool) (ThemeState, error)
}
