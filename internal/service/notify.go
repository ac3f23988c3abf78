package service

import (
	"context"
	"log/slog"

	"rockae/internal/models"
	"rockae/internal/observability"
)

// Publisher delivers realtime events after a change has been stored.
type Publisher interface {
	PublishChatMessage(ctx context.Context, msg *models.Message) error
	PublishUser(ctx context.Context, userID uint, kind string, payload any) error
}

// logPublishError records a failed publish. The stored change stands either way.
func logPublishError(ctx context.Context, event string, err error) {
	if err == nil {
		return
	}
	observability.Logger.WarnContext(ctx, "realtime publish failed",
		slog.String("event", event),
		slog.Any("error", err),
	)
}
