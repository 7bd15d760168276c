// internal/reconcile/reporter.go
package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"

	"repohub/internal/model"
)

// Reporter is the diagnostic sink for rejected payloads and persistence
// failures. Reports are audit records, not errors: reporting never fails the
// operation that produced it.
type Reporter interface {
	ReportPayload(ctx context.Context, payload *model.RepoPayload)
	ReportError(ctx context.Context, err error)
}

// LogReporter writes reports as structured log records, with the raw payload
// serialized back to JSON text.
type LogReporter struct {
	logger *slog.Logger
}

var _ Reporter = (*LogReporter)(nil)

func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportPayload(ctx context.Context, payload *model.RepoPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to serialize payload for report", "repo", payload.FullName, "error", err)
		return
	}
	r.logger.WarnContext(ctx, "Repository payload report", "payload", string(raw))
}

func (r *LogReporter) ReportError(ctx context.Context, err error) {
	r.logger.ErrorContext(ctx, "Reconciliation failure report", "error", err)
}
