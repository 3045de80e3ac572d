package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrIncompleteStream means the transport ended before a "complete" event
	ErrIncompleteStream = errors.New("stream ended before completion")

	// ErrStreamFailed means the backend reported a failure mid-stream
	ErrStreamFailed = errors.New("council stream failed")

	// ErrIdleTimeout means no bytes arrived within the idle timeout
	ErrIdleTimeout = errors.New("stream idle timeout")
)

// StreamError carries the backend's failure message
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s: %s", ErrStreamFailed, e.Message)
}

func (e *StreamError) Unwrap() error {
	return ErrStreamFailed
}

// DefaultChunkSize is the read size of the consumer loop
const DefaultChunkSize = 4096

// Consumer reads one exchange's event stream and drives the assembler
type Consumer struct {
	// ChunkSize is the size of each transport read (default 4096)
	ChunkSize int
	// MaxLineBytes bounds a single record (default DefaultMaxLineBytes)
	MaxLineBytes int
	// IdleTimeout aborts the stream if no bytes arrive for this long; 0 disables it
	IdleTimeout time.Duration
	// Logger defaults to the global zerolog logger
	Logger *zerolog.Logger
}

func (c *Consumer) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

// Consume reads r until a terminal event, EOF, a transport error or ctx
// cancellation. Every applied event produces a new snapshot that is handed to
// onSnapshot (which may be nil) in arrival order.
//
// Malformed records and unknown event types are skipped. If r is an io.Closer
// it is closed when ctx is cancelled so a blocked read returns promptly.
// On every error path the returned snapshot has no loading flags set.
func (c *Consumer) Consume(ctx context.Context, r io.Reader, snap Snapshot, onSnapshot func(Snapshot)) (Snapshot, error) {
	lg := c.logger()

	chunkSize := c.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	lines := NewLineBuffer(c.MaxLineBytes)
	chunk := make([]byte, chunkSize)

	if closer, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { closer.Close() })
		defer stop()
	}

	var idle *time.Timer
	var timedOut atomic.Bool
	if c.IdleTimeout > 0 {
		if closer, ok := r.(io.Closer); ok {
			idle = time.AfterFunc(c.IdleTimeout, func() {
				timedOut.Store(true)
				closer.Close()
			})
			defer idle.Stop()
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return Abort(snap, "cancelled"), err
		}

		n, readErr := r.Read(chunk)
		if idle != nil && n > 0 {
			idle.Reset(c.IdleTimeout)
		}

		if n > 0 {
			complete, err := lines.Feed(chunk[:n])
			for _, line := range complete {
				snap = c.apply(lg, snap, line, onSnapshot)
				if snap.Phase.Terminal() {
					return snap, terminalError(snap)
				}
			}
			if err != nil {
				lg.Error().Err(err).Int("limit", c.MaxLineBytes).Msg("stream record too large")
				return c.abort(snap, onSnapshot, err), fmt.Errorf("%w: %w", ErrIncompleteStream, err)
			}
		}

		if readErr == nil {
			continue
		}

		if err := ctx.Err(); err != nil {
			return Abort(snap, "cancelled"), err
		}
		if timedOut.Load() {
			lg.Warn().Dur("idle_timeout", c.IdleTimeout).Str("phase", snap.Phase.String()).Msg("stream idle")
			return c.abort(snap, onSnapshot, ErrIdleTimeout), fmt.Errorf("%w: %w", ErrIncompleteStream, ErrIdleTimeout)
		}
		if errors.Is(readErr, io.EOF) {
			if lines.Pending() {
				lg.Warn().Int("bytes", len(lines.Residual())).Msg("stream closed mid-record")
			}
			lg.Warn().Str("phase", snap.Phase.String()).Msg("stream closed before complete")
			return c.abort(snap, onSnapshot, ErrIncompleteStream), ErrIncompleteStream
		}

		lg.Error().Err(readErr).Str("phase", snap.Phase.String()).Msg("stream read failed")
		return c.abort(snap, onSnapshot, readErr), fmt.Errorf("%w: %w", ErrIncompleteStream, readErr)
	}
}

// apply decodes one line and advances the snapshot
func (c *Consumer) apply(lg *zerolog.Logger, snap Snapshot, line []byte, onSnapshot func(Snapshot)) Snapshot {
	payload, ok := DataPayload(line)
	if !ok {
		return snap
	}

	ev, err := Decode(payload)
	if err != nil {
		lg.Warn().Err(err).Int("bytes", len(payload)).Msg("skipping malformed event")
		return snap
	}

	if u, unknown := ev.(Unknown); unknown {
		lg.Debug().Str("event", u.Name).Msg("ignoring unknown event type")
		return snap
	}

	next := Advance(snap, ev)
	lg.Debug().
		Str("event", string(ev.Type())).
		Str("phase", next.Phase.String()).
		Msg("stream event")

	if onSnapshot != nil {
		onSnapshot(next)
	}
	return next
}

func (c *Consumer) abort(snap Snapshot, onSnapshot func(Snapshot), cause error) Snapshot {
	next := Abort(snap, cause.Error())
	if onSnapshot != nil {
		onSnapshot(next)
	}
	return next
}

func terminalError(snap Snapshot) error {
	if snap.Phase == PhaseFailed {
		return &StreamError{Message: snap.Failure}
	}
	return nil
}
