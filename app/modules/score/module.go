package score

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	authhandlers "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/handlers"
	scoreservice "github.com/sjlangley/social-golf-spa/app/modules/score/application"
	scorehandlers "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/handlers"
	scorepublisher "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/publisher"
	scoredb "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/repositories"
	"github.com/sjlangley/social-golf-spa/config"
	"github.com/sjlangley/social-golf-spa/pkg/observability"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/uptrace/bun"
)

// Module represents the score module.
type Module struct {
	service  *scoreservice.ScoreService
	handlers scorehandlers.Handlers
	logger   *slog.Logger
}

// NewModule creates a new score module publishing through publisher.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	publisher message.Publisher,
) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing score module")

	m := metrics.NewScoreMetrics(obs.Registry)
	pub := scorepublisher.NewScorePublisher(publisher, logger, m, obs.Tracer, scorepublisher.RetryConfig{
		MaxRetries:      cfg.Publisher.MaxRetries,
		InitialInterval: cfg.Publisher.InitialInterval,
		MaxInterval:     cfg.Publisher.MaxInterval,
	})
	service := scoreservice.NewScoreService(scoredb.NewRepository(db), pub, logger, m, obs.Tracer, db)

	return &Module{
		service:  service,
		handlers: scorehandlers.NewScoreHandlers(service, logger),
		logger:   logger,
	}
}

// RegisterRoutes mounts the score endpoints. r must already authenticate.
func (m *Module) RegisterRoutes(r chi.Router) {
	r.With(authhandlers.RequirePermission(authdomain.PermScoresCreate)).Post("/members/{memberID}/scores", m.handlers.RecordScore)
	r.With(authhandlers.RequirePermission(authdomain.PermScoresRead)).Get("/members/{memberID}/scores", m.handlers.ListScores)
	r.With(authhandlers.RequirePermission(authdomain.PermScoresCreate)).Post("/scores/import", m.handlers.ImportScores)
}

// GetService returns the score service.
func (m *Module) GetService() scoreservice.Service {
	return m.service
}
