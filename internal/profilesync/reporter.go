package profilesync

import (
	"context"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"

	"go.uber.org/zap"
)

// Reporter is the observability sink for sync failures.
type Reporter interface {
	ReportSyncFailure(ctx context.Context, userID string, err error)
}

type logReporter struct {
	log *zap.Logger
}

// NewLogReporter reports failures as error-level log entries.
func NewLogReporter(l *zap.Logger) Reporter {
	if l == nil {
		l = logger.L()
	}
	return &logReporter{log: l}
}

func (r *logReporter) ReportSyncFailure(ctx context.Context, userID string, err error) {
	r.log.Error("seller profile sync failed",
		zap.String("request_id", logger.RequestIDFrom(ctx)),
		zap.String("user_id", userID),
		zap.Error(err),
	)
}
