package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
)

// StreamConfigs lists the streams both services expect. The duplicate window
// lets JetStream drop republished messages carrying the same Nats-Msg-Id.
func StreamConfigs() []jetstream.StreamConfig {
	return []jetstream.StreamConfig{
		{
			Name:       scoreevents.ScoreStream,
			Subjects:   []string{"score.>"},
			Storage:    jetstream.FileStorage,
			Retention:  jetstream.LimitsPolicy,
			MaxAge:     7 * 24 * time.Hour,
			Duplicates: 2 * time.Minute,
		},
		{
			Name:       scoreevents.HandicapStream,
			Subjects:   []string{"handicap.>"},
			Storage:    jetstream.FileStorage,
			Retention:  jetstream.LimitsPolicy,
			MaxAge:     7 * 24 * time.Hour,
			Duplicates: 2 * time.Minute,
		},
		{
			Name:      scoreevents.DeadLetterStream,
			Subjects:  []string{scoreevents.DeadLetterPrefix + ">"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    30 * 24 * time.Hour,
		},
	}
}

// InitializeStreams creates or updates the streams in JetStream during application startup.
func InitializeStreams(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	for _, cfg := range StreamConfigs() {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			logger.ErrorContext(ctx, "Failed to provision JetStream stream",
				slog.String("stream", cfg.Name),
				slog.Any("error", err),
			)
			return fmt.Errorf("failed to provision stream %s: %w", cfg.Name, err)
		}
		logger.InfoContext(ctx, "JetStream stream ready", slog.String("stream", cfg.Name))
	}
	return nil
}
