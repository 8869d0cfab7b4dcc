package observer

import (
	"github.com/nerrad567/gray-logic-capture/internal/capture"
)

// Logger is the logging surface used by observers.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Broadcast fans a packet out to a fixed list of observers, in order, on
// the caller's goroutine. The list cannot change after construction.
//
// A panicking observer is logged and skipped; the remaining observers
// still run.
type Broadcast struct {
	observers []capture.Notifier
	logger    Logger
}

// NewBroadcast builds a Broadcast. Nil observers are dropped.
func NewBroadcast(logger Logger, observers ...capture.Notifier) *Broadcast {
	if logger == nil {
		logger = noopLogger{}
	}
	list := make([]capture.Notifier, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return &Broadcast{observers: list, logger: logger}
}

// Len returns the number of attached observers.
func (b *Broadcast) Len() int {
	return len(b.observers)
}

// Notify implements capture.Notifier.
func (b *Broadcast) Notify(stream capture.StreamInfo, packet capture.Packet) {
	for i, o := range b.observers {
		b.notifyOne(i, o, stream, packet)
	}
}

func (b *Broadcast) notifyOne(index int, o capture.Notifier, stream capture.StreamInfo, packet capture.Packet) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panic recovered",
				"stream", stream.Name,
				"kind", packet.Kind.String(),
				"observer", index,
				"panic", r,
			)
		}
	}()
	o.Notify(stream, packet)
}
