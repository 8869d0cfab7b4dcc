package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/mqtt"
)

const (
	defaultHealthInterval = 30 * time.Second
	bridgeID              = "capture"
)

// HealthPublisher is the interface for publishing health messages.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	Version   string
	Interval  time.Duration
	Publisher HealthPublisher
	Streams   []string

	// Stats supplies counters for each report. Optional.
	Stats func() Statistics

	Logger Logger
}

// HealthReporter publishes retained health messages at a fixed interval.
type HealthReporter struct {
	version   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	streams   []string
	stats     func() Statistics
	logger    Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHealthReporter creates a reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	stats := cfg.Stats
	if stats == nil {
		stats = func() Statistics { return Statistics{} }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &HealthReporter{
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		streams:   cfg.Streams,
		stats:     stats,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start publishes a healthy status now and then every interval until ctx
// is cancelled or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final stopping status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // Best-effort during shutdown
		h.PublishStatus(HealthStopping, "")
	})
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	h.publishCurrent()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.publishCurrent()
		}
	}
}

func (h *HealthReporter) publishCurrent() {
	if !h.publisher.IsConnected() {
		return
	}
	status, reason := HealthHealthy, ""
	if len(h.streams) == 0 {
		status, reason = HealthDegraded, "no streams configured"
	}
	if err := h.PublishStatus(status, reason); err != nil {
		h.logger.Warn("publishing health failed", "error", err)
	}
}

// Message builds a health message for the given status.
func (h *HealthReporter) Message(status HealthStatus, reason string) HealthMessage {
	return HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Streams:       h.streams,
		Statistics:    h.stats(),
		Reason:        reason,
	}
}

// PublishStatus publishes a retained health message immediately.
func (h *HealthReporter) PublishStatus(status HealthStatus, reason string) error {
	payload, err := json.Marshal(h.Message(status, reason))
	if err != nil {
		return fmt.Errorf("marshal health message: %w", err)
	}
	return h.publisher.Publish(mqtt.Topics{}.Health(), payload, ackQoS, true)
}
