package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SyncProcessorConfig holds configuration for the periodic sync loop.
type SyncProcessorConfig struct {
	// PollInterval is how often to look for unsynced transactions.
	PollInterval time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults.
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
	}
}

// SyncProcessor runs the sync engine on a schedule. It is the at-least-once
// backstop behind the AMQP fast path: anything a lost message missed is
// picked up on the next poll.
type SyncProcessor struct {
	engine *SyncEngine
	config SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(engine *SyncEngine, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		engine: engine,
		config: config,
	}
}

// Start begins the poll loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for the loop to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning reports whether the poll loop is active.
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup to drain any backlog from downtime.
	p.runOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *SyncProcessor) runOnce(ctx context.Context) {
	report, err := p.engine.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled sync run failed", "error", err)
		return
	}
	if report.Attempted() > 0 {
		slog.InfoContext(ctx, "Scheduled sync run completed",
			"confirmed", report.ConfirmedCount(),
			"failed", report.FailedCount())
	}
}
