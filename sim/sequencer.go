package sim

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/evanjt06/lrusim/cache"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config holds the knobs for a simulation session.
type Config struct {
	// Capacity is the cache's maxSize.
	Capacity int
	// RecordPath, when set, receives one JSON line per executed operation.
	RecordPath string
}

func DefaultConfig() Config {
	return Config{Capacity: 4}
}

// Sequencer replays operations against a cache it owns and keeps the
// resulting records.
type Sequencer struct {
	mu      sync.Mutex
	cache   *cache.Cache
	records []OperationRecord
	logger  *zap.SugaredLogger

	recordFile *os.File
	recordW    *bufio.Writer
}

func NewSequencer(cfg Config, logger *zap.SugaredLogger) (*Sequencer, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Sequencer{
		cache:  cache.New(cfg.Capacity, logger.Named("cache")),
		logger: logger.Named("sim"),
	}

	if cfg.RecordPath != "" {
		f, err := os.OpenFile(cfg.RecordPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open record file: %w", err)
		}
		s.recordFile = f
		s.recordW = bufio.NewWriter(f)
	}

	return s, nil
}

// Step validates and executes a single operation. An invalid operation is
// rejected before the cache is touched.
func (s *Sequencer) Step(op Operation) (OperationRecord, error) {
	if err := op.Validate(); err != nil {
		s.logger.Debugw("Rejected operation", "op", op.Type, "key", op.Key, "error", err)
		return OperationRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := OperationRecord{
		Step: len(s.records) + 1,
		Type: op.Type,
		Key:  op.Key,
	}

	switch op.Type {
	case OpGet:
		rec.Result, rec.Hit = s.cache.Get(op.Key)
	case OpSet:
		rec.Value = op.Value
		if evicted, ok := s.cache.Set(op.Key, op.Value); ok {
			rec.EvictedKey = evicted
		}
	}

	s.records = append(s.records, rec)
	s.writeRecord(rec)

	s.logger.Debugw("Executed operation",
		"step", rec.Step,
		"op", rec.Type,
		"key", rec.Key,
		"hit", rec.Hit,
		"evicted", rec.EvictedKey,
	)
	return rec, nil
}

// Run executes ops in order. Cancellation is checked between steps, so the
// cache is never left half-way through an operation. The records produced
// before the first failure are always returned.
func (s *Sequencer) Run(ctx context.Context, ops []Operation) ([]OperationRecord, error) {
	out := make([]OperationRecord, 0, len(ops))
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			s.logger.Infow("Replay cancelled", "completed", i, "remaining", len(ops)-i)
			return out, err
		}
		rec, err := s.Step(op)
		if err != nil {
			return out, fmt.Errorf("operation %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Frame is what a viewer sees after one step of playback.
type Frame struct {
	Record  OperationRecord
	Entries []cache.Entry
	Stats   cache.Stats
}

// Play runs ops in the background, waiting interval before every step after
// the first. A frame is sent on the returned channel after each step, and
// the channel is closed when playback ends. The error channel then yields
// the outcome of the run. The caller must drain the frame channel.
func (s *Sequencer) Play(ctx context.Context, ops []Operation, interval time.Duration) (<-chan Frame, <-chan error) {
	frames := make(chan Frame)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(frames)

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for i, op := range ops {
			if i > 0 && tick != nil {
				select {
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				case <-tick:
				}
			}
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}

			rec, err := s.Step(op)
			if err != nil {
				errc <- fmt.Errorf("operation %d: %w", i+1, err)
				return
			}

			frame := Frame{Record: rec, Entries: s.cache.Entries(), Stats: s.cache.Stats()}
			select {
			case frames <- frame:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- nil
	}()

	return frames, errc
}

// Records returns a copy of every record since the last Reset.
func (s *Sequencer) Records() []OperationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OperationRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Sequencer) Stats() cache.Stats {
	return s.cache.Stats()
}

// Snapshot returns the store ordered from least to most recently used.
func (s *Sequencer) Snapshot() []cache.Entry {
	return s.cache.Entries()
}

func (s *Sequencer) Cache() *cache.Cache {
	return s.cache
}

// Reset clears the cache, its stats and the record list. The record file,
// if any, is left as is.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Reset()
	s.records = nil
	s.logger.Debugw("Sequencer reset")
}

// Close flushes and closes the record file and syncs the logger.
func (s *Sequencer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.recordW != nil {
		err = multierr.Append(err, s.recordW.Flush())
		err = multierr.Append(err, s.recordFile.Close())
		s.recordW = nil
		s.recordFile = nil
	}
	_ = s.logger.Sync()
	return err
}

// writeRecord appends rec to the record file. Caller holds mu. A failed
// write is logged and does not fail the operation.
func (s *Sequencer) writeRecord(rec OperationRecord) {
	if s.recordW == nil {
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Errorw("Failed to encode record", "error", err)
		return
	}
	if _, err := s.recordW.Write(append(data, '\n')); err != nil {
		s.logger.Errorw("Failed to append record", "error", err)
		return
	}
	if err := s.recordW.Flush(); err != nil {
		s.logger.Errorw("Failed to flush record file", "error", err)
	}
}
