package usecase

import (
	"context"
	"time"

	"skillmatch/internal/domain/match"
)

type AnalysisCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type JobFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// MatchQueue hands async matches to workers and carries their status events.
type MatchQueue interface {
	PublishRequest(ctx context.Context, req match.Request) error
	PublishUpdate(ctx context.Context, u match.Update) error
}
