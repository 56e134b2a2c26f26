package handicaphandlers

import (
	"context"

	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/handlerwrapper"
)

// Handlers is the set of event handlers exposed by the handicap module.
type Handlers interface {
	HandleScoreCreated(ctx context.Context, payload *scoreevents.ScoreCreatedPayloadV1) ([]handlerwrapper.Result, error)
}
