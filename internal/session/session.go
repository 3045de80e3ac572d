// internal/session/session.go
// Package session drives one conversation view: it runs streamed council
// exchanges, keeps the active conversation snapshot and memoizes its layout.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"synapse/internal/council"
	"synapse/internal/layout"
	"synapse/internal/ranking"
	"synapse/internal/stream"
)

var (
	// ErrBusy is returned while an exchange is in flight
	ErrBusy = errors.New("an exchange is already in progress")

	// ErrNoConversation is returned when no conversation is open
	ErrNoConversation = errors.New("no conversation open")
)

// Backend is the conversation store and stream transport
type Backend interface {
	ListConversations(ctx context.Context) ([]council.ConversationSummary, error)
	CreateConversation(ctx context.Context) (*council.Conversation, error)
	GetConversation(ctx context.Context, id string) (*council.Conversation, error)
	RenameConversation(ctx context.Context, id, title string) (*council.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	OpenStream(ctx context.Context, id, content string) (io.ReadCloser, error)
}

// Cache keeps authoritative conversations for offline reading
type Cache interface {
	SaveConversation(conv *council.Conversation) error
	GetConversation(id string) (*council.Conversation, error)
	ListConversations() ([]council.ConversationSummary, error)
	RenameConversation(id, title string) error
	DeleteConversation(id string) error
}

// Options configures a Session
type Options struct {
	Consumer *stream.Consumer
	Layout   layout.Options
	// Cache may be nil
	Cache Cache
}

// UpdateFunc receives every new conversation snapshot. Snapshots are never
// mutated after they are handed out.
type UpdateFunc func(*council.Conversation)

// Session is the controller behind one conversation view
type Session struct {
	backend  Backend
	cache    Cache
	consumer *stream.Consumer
	layout   layout.Options

	busy atomic.Bool

	mu      sync.Mutex
	conv    *council.Conversation
	cancel  context.CancelFunc
	offline bool

	memoGraph  *council.ReasoningGraph
	memoLayout layout.Result
	memoValid  bool
}

// New creates a session with no open conversation
func New(backend Backend, opts Options) *Session {
	consumer := opts.Consumer
	if consumer == nil {
		consumer = &stream.Consumer{}
	}
	if opts.Layout == (layout.Options{}) {
		opts.Layout = layout.DefaultOptions()
	}
	return &Session{
		backend:  backend,
		cache:    opts.Cache,
		consumer: consumer,
		layout:   opts.Layout,
	}
}

// Conversation returns the current snapshot, or nil
func (s *Session) Conversation() *council.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// Busy reports whether an exchange is in flight
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Offline reports whether the last load was served from the cache
func (s *Session) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// Submit runs one streamed exchange for content on the open conversation.
//
// The user message and a placeholder assistant message are appended at once;
// every stream event then replaces the conversation snapshot. On completion
// the authoritative conversation is fetched and cached. If ctx is cancelled
// (or Cancel is called) the optimistic messages are dropped and ctx's error is
// returned. Any other failure keeps the partial assistant message with its
// loading flags cleared so the user can retry.
func (s *Session) Submit(ctx context.Context, content string, onUpdate UpdateFunc) error {
	base := s.Conversation()
	if base == nil {
		return ErrNoConversation
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.busy.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	lg := log.With().
		Str("conversation_id", base.ID).
		Str("exchange_id", uuid.NewString()).
		Logger()

	user, assistant := council.NewOptimisticExchange(content)
	snap := stream.NewSnapshot(assistant)
	s.publish(withMessages(base, user, snap.Message), onUpdate)
	lg.Info().Int("length", len(content)).Msg("exchange started")

	body, err := s.backend.OpenStream(ctx, base.ID, content)
	if err != nil {
		if ctx.Err() != nil {
			s.publish(base, onUpdate)
			return ctx.Err()
		}
		lg.Error().Err(err).Msg("open stream failed")
		s.publish(withMessages(base, user, stream.Abort(snap, err.Error()).Message), onUpdate)
		return fmt.Errorf("open stream: %w", err)
	}
	defer body.Close()

	consumer := *s.consumer
	consumer.Logger = &lg
	final, err := consumer.Consume(ctx, body, snap, func(next stream.Snapshot) {
		s.publish(withMessages(base, user, next.Message), onUpdate)
	})

	switch {
	case ctx.Err() != nil:
		lg.Info().Str("phase", final.Phase.String()).Msg("exchange cancelled")
		s.publish(base, onUpdate)
		return ctx.Err()
	case err != nil:
		lg.Warn().Err(err).Str("phase", final.Phase.String()).Msg("exchange failed")
		s.publish(withMessages(base, user, ranking.Enrich(final.Message)), onUpdate)
		return err
	}

	lg.Info().Msg("exchange complete")

	fresh, err := s.backend.GetConversation(ctx, base.ID)
	if err != nil {
		// the assembled message stands in for the authoritative one
		lg.Warn().Err(err).Msg("refetch after complete failed")
		s.publish(withMessages(base, user, ranking.Enrich(final.Message)), onUpdate)
		return nil
	}
	s.store(fresh)
	s.publish(enrich(fresh), onUpdate)
	return nil
}

// Cancel abandons the in-flight exchange, if any
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// Layout returns the layout of the latest reasoning graph in the open
// conversation. It is recomputed only when that graph changes.
func (s *Session) Layout() layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.conv.LatestGraph()
	if s.memoValid && g == s.memoGraph {
		return s.memoLayout
	}
	s.memoGraph = g
	s.memoLayout = s.layout.Layout(g)
	s.memoValid = true
	return s.memoLayout
}

func (s *Session) publish(conv *council.Conversation, onUpdate UpdateFunc) {
	s.mu.Lock()
	s.conv = conv
	s.mu.Unlock()
	if onUpdate != nil {
		onUpdate(conv)
	}
}

func (s *Session) store(conv *council.Conversation) {
	if s.cache == nil || conv == nil {
		return
	}
	if err := s.cache.SaveConversation(conv); err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("cache write failed")
	}
}

// withMessages returns a copy of base with msgs appended
func withMessages(base *council.Conversation, msgs ...council.Message) *council.Conversation {
	next := *base
	next.Messages = append(slices.Clone(base.Messages), msgs...)
	return &next
}

// enrich fills in client-side ranking aggregates on every assistant message
func enrich(conv *council.Conversation) *council.Conversation {
	next := *conv
	next.Messages = make([]council.Message, len(conv.Messages))
	for i, m := range conv.Messages {
		if m.IsAssistant() {
			m = ranking.Enrich(m)
		}
		next.Messages[i] = m
	}
	return &next
}
