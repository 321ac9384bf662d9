package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sextant-gg/sextant/pkg/audit"
)

// Config tunes the async recorder.
type Config struct {
	// Enabled turns recording on. A disabled recorder accepts and
	// discards records.
	Enabled bool

	// AsyncBuffer is how many records may queue before Record blocks.
	// DefaultConfig uses 1000.
	AsyncBuffer int

	// WriteTimeout bounds both a single storage write and how long
	// Record waits for queue space before dropping. DefaultConfig uses 5s.
	WriteTimeout time.Duration
}

// DefaultConfig returns the settings applied when NewRecorder gets a nil
// config.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder persists audit records for discovery and health rounds. A
// single background goroutine owns the storage writes, so a slow backend
// never blocks the request path; when the queue stays full past the
// write timeout the record is dropped and the drop is logged.
type Recorder struct {
	storage audit.Storage
	config  *Config
	queue   chan *audit.Record
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewRecorder starts a recorder writing to storage. A nil config gets
// the defaults.
func NewRecorder(storage audit.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		queue:   make(chan *audit.Record, config.AsyncBuffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)
	return r
}

// Record enqueues a completed round record. It returns quickly: the only
// wait is for queue space, bounded by the write timeout, after which the
// record is dropped and a RecorderError comes back.
func (r *Recorder) Record(record *audit.Record) error {
	if !r.config.Enabled {
		return nil
	}

	// Refuse new records once shutdown has begun. Without this check the
	// select below could still win the buffered send against a closed
	// done channel and queue a record the worker will never see.
	select {
	case <-r.done:
		r.logger.Warn("recorder stopping, record dropped",
			"record_id", record.ID,
			"kind", record.Kind,
		)
		return audit.NewRecorderError(record.ID, context.Canceled)
	default:
	}

	select {
	case r.queue <- record:
		return nil
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("audit queue full, dropping record",
			"record_id", record.ID,
			"kind", record.Kind,
			"pod_id", record.PodID,
			"queue_capacity", r.config.AsyncBuffer,
		)
		return audit.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		r.logger.Warn("recorder stopping, record dropped",
			"record_id", record.ID,
			"kind", record.Kind,
		)
		return audit.NewRecorderError(record.ID, context.Canceled)
	}
}

// Close stops the recorder after flushing everything already queued.
func (r *Recorder) Close() error {
	r.logger.Info("shutting down audit recorder")
	close(r.done)
	r.wg.Wait()
	r.logger.Info("audit recorder shut down complete")
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.queue:
			r.persist(record)
		case <-r.done:
			r.drain()
			return
		}
	}
}

// drain writes whatever is still queued at shutdown.
func (r *Recorder) drain() {
	r.logger.Info("draining audit queue before shutdown", "pending", len(r.queue))
	for {
		select {
		case record := <-r.queue:
			r.persist(record)
		default:
			r.logger.Info("audit queue drained")
			return
		}
	}
}

// persist writes one record, bounded by the write timeout. Failures are
// logged and swallowed; the round already finished and there is nobody
// left to hand the error to.
func (r *Recorder) persist(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"kind", record.Kind,
			"pod_id", record.PodID,
			"error", err,
		)
		return
	}

	if elapsed := time.Since(start); elapsed > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"elapsed_ms", elapsed.Milliseconds(),
		)
	}

	r.logger.Debug("audit record stored",
		"record_id", record.ID,
		"kind", record.Kind,
		"pod_id", record.PodID,
		"outcome", record.Outcome,
	)
}
