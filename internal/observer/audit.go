package observer

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-capture/internal/capture"
	"github.com/nerrad567/gray-logic-capture/internal/commandlog"
)

// auditWriteTimeout bounds each command log insert.
const auditWriteTimeout = 5 * time.Second

// Recorder persists command log entries.
type Recorder interface {
	Create(ctx context.Context, entry *commandlog.Entry) error
}

// Audit records every packet in the command log.
type Audit struct {
	repo   Recorder
	logger Logger
}

// NewAudit creates an Audit observer.
func NewAudit(repo Recorder, logger Logger) *Audit {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Audit{repo: repo, logger: logger}
}

// Notify implements capture.Notifier.
func (a *Audit) Notify(stream capture.StreamInfo, packet capture.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	entry := commandlog.NewEntry(stream, packet)
	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Error("recording capture packet failed",
			"stream", stream.Name,
			"kind", packet.Kind.String(),
			"error", err,
		)
		return
	}
	a.logger.Debug("capture packet recorded", "id", entry.ID, "stream", stream.Name)
}
