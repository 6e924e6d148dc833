package reporting

import (
	"context"
	"log/slog"
	"time"
)

// Computer produces the full metrics tree for a period.
type Computer interface {
	Compute(ctx context.Context, start, end time.Time) (Metrics, error)
}

// Shaper selects the metric groups that belong to a report variant.
type Shaper struct {
	computer Computer
	logger   *slog.Logger
}

// NewShaper creates a shaper over the given metrics computer.
func NewShaper(computer Computer) *Shaper {
	return &Shaper{
		computer: computer,
		logger:   slog.Default().With(slog.String("component", "payload-shaper")),
	}
}

// Shape computes all metrics for the period and restricts them to the
// groups of reportType. Unrecognized types shape as a full report.
func (s *Shaper) Shape(ctx context.Context, start, end time.Time, reportType string) (Payload, error) {
	kind, ok := ResolveKind(reportType)
	if !ok {
		s.logger.Warn("unrecognized report type, shaping full report",
			slog.String("report_type", reportType))
	}

	metrics, err := s.computer.Compute(ctx, start, end)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Kind: kind, Metrics: metrics}, nil
}
