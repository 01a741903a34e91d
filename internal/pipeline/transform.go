package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
	"github.com/couchcryptid/storm-data-geomatch/internal/observability"
)

// MatchTransformer implements Transformer by parsing raw storm events and
// attaching the nearest candidate city to each one.
type MatchTransformer struct {
	matcher *domain.Matcher
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates a MatchTransformer backed by the given matcher.
func NewTransformer(matcher *domain.Matcher, metrics *observability.Metrics, logger *slog.Logger) *MatchTransformer {
	return &MatchTransformer{
		matcher: matcher,
		metrics: metrics,
		logger:  logger,
	}
}

func (t *MatchTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	event, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	start := time.Now()
	match, err := t.matcher.Nearest(event.Geo)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.metrics.MatchDuration.Observe(time.Since(start).Seconds())

	event = domain.AttachNearestCity(event, match)

	return domain.SerializeMatchedEvent(event)
}
