package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"skillmatch/internal/domain/match"
	"skillmatch/internal/logger"
)

const EventMatchUpdate = "match_update"

type MatchUpdateEvent struct {
	Type string `json:"type"`
	match.Update
}

// UpdateSource delivers match status updates until ctx is done.
type UpdateSource interface {
	SubscribeUpdates(ctx context.Context, handle func(match.Update)) error
}

// Forward pushes every update from src to the owning user's connections.
// It blocks until the subscription ends.
func Forward(ctx context.Context, src UpdateSource, hub *Hub, l *zap.Logger) error {
	log := logger.Named(l, "ws")
	return src.SubscribeUpdates(ctx, func(u match.Update) {
		b, err := EncodeUpdate(u)
		if err != nil {
			log.Warn("encode update failed", zap.String(logger.FieldMatchID, u.MatchID.String()), zap.Error(err))
			return
		}
		hub.SendToUser(u.UserID, b)
	})
}

func EncodeUpdate(u match.Update) ([]byte, error) {
	return json.Marshal(MatchUpdateEvent{Type: EventMatchUpdate, Update: u})
}
