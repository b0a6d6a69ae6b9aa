package events

import (
	"context"
)

// Publisher pushes engine events onto a feed for spectator UIs and
// integrations. Publish failures never fail the turn engine; callers log
// and move on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards events. Used when no feed is configured.
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
