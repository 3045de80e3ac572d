// internal/session/library.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"synapse/internal/client"
	"synapse/internal/council"
)

// List returns the conversation list. If the backend is unreachable and a
// cache is configured, the cached list is returned and Offline reports true.
func (s *Session) List(ctx context.Context) ([]council.ConversationSummary, error) {
	list, err := s.backend.ListConversations(ctx)
	if err == nil {
		s.setOffline(false)
		return list, nil
	}
	if s.cache == nil || ctx.Err() != nil {
		return nil, err
	}

	cached, cacheErr := s.cache.ListConversations()
	if cacheErr != nil {
		return nil, errors.Join(err, cacheErr)
	}
	log.Warn().Err(err).Int("cached", len(cached)).Msg("backend unavailable, listing from cache")
	s.setOffline(true)
	return cached, nil
}

// Open makes the conversation with id the active one
func (s *Session) Open(ctx context.Context, id string) (*council.Conversation, error) {
	if s.Busy() {
		return nil, ErrBusy
	}

	conv, err := s.backend.GetConversation(ctx, id)
	switch {
	case err == nil:
		s.store(conv)
		s.setOffline(false)
	case errors.Is(err, client.ErrNotFound):
		s.forget(id)
		return nil, err
	case s.cache != nil && ctx.Err() == nil:
		cached, cacheErr := s.cache.GetConversation(id)
		if cacheErr != nil {
			return nil, err
		}
		log.Warn().Err(err).Str("conversation_id", id).Msg("backend unavailable, opened cached copy")
		s.setOffline(true)
		conv = cached
	default:
		return nil, err
	}

	conv = enrich(conv)
	s.publish(conv, nil)
	return conv, nil
}

// Create starts a new conversation, titles it when title is non-empty, and
// makes it the active one
func (s *Session) Create(ctx context.Context, title string) (*council.Conversation, error) {
	if s.Busy() {
		return nil, ErrBusy
	}

	conv, err := s.backend.CreateConversation(ctx)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	if title != "" {
		renamed, err := s.backend.RenameConversation(ctx, conv.ID, title)
		if err != nil {
			return nil, fmt.Errorf("title conversation: %w", err)
		}
		conv = renamed
	}

	s.store(conv)
	s.setOffline(false)
	s.publish(conv, nil)
	log.Info().Str("conversation_id", conv.ID).Msg("conversation created")
	return conv, nil
}

// Rename retitles the active conversation
func (s *Session) Rename(ctx context.Context, title string) (*council.Conversation, error) {
	cur := s.Conversation()
	if cur == nil {
		return nil, ErrNoConversation
	}
	if s.Busy() {
		return nil, ErrBusy
	}

	if _, err := s.backend.RenameConversation(ctx, cur.ID, title); err != nil {
		return nil, fmt.Errorf("rename conversation: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.RenameConversation(cur.ID, title); err != nil {
			log.Debug().Err(err).Str("conversation_id", cur.ID).Msg("cache rename skipped")
		}
	}

	next := *cur
	next.Title = title
	s.publish(&next, nil)
	return &next, nil
}

// Delete removes the active conversation and closes it
func (s *Session) Delete(ctx context.Context) error {
	cur := s.Conversation()
	if cur == nil {
		return ErrNoConversation
	}
	if s.Busy() {
		return ErrBusy
	}

	if err := s.backend.DeleteConversation(ctx, cur.ID); err != nil && !errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("delete conversation: %w", err)
	}
	s.forget(cur.ID)
	s.publish(nil, nil)
	log.Info().Str("conversation_id", cur.ID).Msg("conversation deleted")
	return nil
}

func (s *Session) forget(id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteConversation(id); err != nil {
		log.Debug().Err(err).Str("conversation_id", id).Msg("cache delete skipped")
	}
}

func (s *Session) setOffline(v bool) {
	s.mu.Lock()
	s.offline = v
	s.mu.Unlock()
}
