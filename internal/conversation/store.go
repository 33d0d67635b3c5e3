// Package conversation holds the conversation list and the transcript of
// the current conversation, synchronized with the backend with optimistic
// local inserts for sent messages.
package conversation

import (
	"context"
	"sync"

	"github.com/ragline/ragline/internal/gateway"
	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/internal/models"
	"github.com/ragline/ragline/internal/storage"
)

// Snapshot is a consistent copy of store state. The transcript always
// belongs to Current; both are empty in the new-chat state.
type Snapshot struct {
	Conversations []models.Conversation
	Current       *models.Conversation
	Messages      []models.Message
	IsLoading     bool
	IsTyping      bool
}

// Store is the conversation state container. All mutation goes through
// its methods; concurrent calls from UI goroutines interleave safely
// because every update is a whole-state replacement or an append under
// the lock.
type Store struct {
	mu      sync.Mutex
	gateway *gateway.Client
	cache   *storage.StateStore // optional write-through cache

	conversations []models.Conversation
	current       *models.Conversation
	messages      []models.Message
	loading       bool
	typing        bool

	// Monotonic guards: a late-resolving stale load must not overwrite
	// state installed by a more recent request. listSeq covers the
	// conversation list, pairSeq the (current, messages) pair.
	listSeq uint64
	pairSeq uint64
}

// NewStore builds a conversation store over the gateway. cache may be nil
// to run without the offline cache.
func NewStore(gw *gateway.Client, cache *storage.StateStore) *Store {
	return &Store{gateway: gw, cache: cache}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Conversations: append([]models.Conversation(nil), s.conversations...),
		Messages:      append([]models.Message(nil), s.messages...),
		IsLoading:     s.loading,
		IsTyping:      s.typing,
	}
	if s.current != nil {
		conv := *s.current
		snap.Current = &conv
	}
	return snap
}

// SendMessage appends the user's message locally before any I/O, asks the
// backend, and appends the assistant's answer. The typing flag is true
// for exactly the duration of the call, cleared on success and failure
// alike. An explicit conversationID wins over the current conversation;
// zero for both lets the backend open a new conversation, which is then
// adopted as current via a detail fetch. On failure the optimistic user
// message is not rolled back here; the error propagates and the caller
// owns rollback and visible feedback. If the (current, messages) pair
// moved on while the ask was in flight, the reply is discarded instead
// of landing in the wrong transcript.
func (s *Store) SendMessage(ctx context.Context, text string, conversationID int64) error {
	s.mu.Lock()
	s.typing = true
	s.messages = append(s.messages, models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: models.Now(),
	})
	target := conversationID
	hadCurrent := s.current != nil
	if target == 0 && hadCurrent {
		target = s.current.ID
	}
	pairSeq := s.pairSeq
	s.mu.Unlock()

	defer s.setTyping(false)

	answer, err := s.gateway.Ask(ctx, text, target)
	if err != nil {
		return err
	}

	s.mu.Lock()
	stale := s.pairSeq != pairSeq
	if !stale {
		s.messages = append(s.messages, models.Message{
			Role:       models.RoleAssistant,
			Content:    answer.Answer,
			RouteTaken: answer.RouteTaken,
			Timestamp:  models.Now(),
		})
	}
	s.mu.Unlock()
	if stale {
		// The user switched conversations while the ask was in flight;
		// the reply belongs to the old transcript, not the new one.
		return nil
	}

	if answer.ConversationID != 0 && !hadCurrent {
		s.adoptConversation(ctx, answer.ConversationID, pairSeq)
	}
	s.writeTranscriptThrough()
	return nil
}

// adoptConversation makes a backend-created conversation current after
// the first turn of a new chat. The transcript stays: it already belongs
// to this conversation. Skipped if state moved on while we fetched.
func (s *Store) adoptConversation(ctx context.Context, id int64, pairSeq uint64) {
	history, err := s.gateway.GetConversation(ctx, id)
	if err != nil {
		logging.Logger().Warn("conversation: adopt new conversation", "id", id, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pairSeq != pairSeq {
		return
	}
	conv := history.Conversation
	s.current = &conv
}

// LoadConversations replaces the whole conversation list from the
// backend. Errors are logged and swallowed, leaving the stale list in
// place; this is a background refresh, not a user action.
func (s *Store) LoadConversations(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.listSeq++
	seq := s.listSeq
	s.mu.Unlock()
	defer s.setLoading(false)

	convs, err := s.gateway.ListConversations(ctx)
	if err != nil {
		logging.Logger().Warn("conversation: load list", "error", err)
		return
	}

	s.mu.Lock()
	stale := s.listSeq != seq
	if !stale {
		s.conversations = convs
	}
	s.mu.Unlock()
	if stale {
		return
	}

	if s.cache != nil {
		if err := s.cache.CacheConversations(convs); err != nil {
			logging.Logger().Warn("conversation: cache list", "error", err)
		}
	}
}

// LoadConversation replaces the current conversation and its transcript
// together from the backend detail endpoint. The fetched transcript fully
// replaces local state, optimistic messages included: the server is
// authoritative. Errors are logged and swallowed, previous state stays.
func (s *Store) LoadConversation(ctx context.Context, id int64) {
	s.mu.Lock()
	s.loading = true
	s.pairSeq++
	seq := s.pairSeq
	s.mu.Unlock()
	defer s.setLoading(false)

	history, err := s.gateway.GetConversation(ctx, id)
	if err != nil {
		logging.Logger().Warn("conversation: load conversation", "id", id, "error", err)
		return
	}

	s.mu.Lock()
	stale := s.pairSeq != seq
	if !stale {
		conv := history.Conversation
		s.current = &conv
		s.messages = history.Messages
	}
	s.mu.Unlock()
	if stale {
		return
	}

	if s.cache != nil {
		if err := s.cache.CacheTranscript(history.Conversation, history.Messages); err != nil {
			logging.Logger().Warn("conversation: cache transcript", "id", id, "error", err)
		}
	}
}

// LoadFromCache seeds the list (and, for id != 0, the transcript pair)
// from the offline cache so the UI renders before the first network round
// trip. No-op without a cache.
func (s *Store) LoadFromCache(id int64) {
	if s.cache == nil {
		return
	}
	convs, err := s.cache.CachedConversations()
	if err != nil {
		logging.Logger().Warn("conversation: read cached list", "error", err)
		return
	}
	s.mu.Lock()
	if len(s.conversations) == 0 {
		s.conversations = convs
	}
	s.mu.Unlock()

	if id == 0 {
		return
	}
	conv, messages, ok, err := s.cache.CachedTranscript(id)
	if err != nil || !ok {
		if err != nil {
			logging.Logger().Warn("conversation: read cached transcript", "id", id, "error", err)
		}
		return
	}
	s.mu.Lock()
	if s.current == nil {
		s.current = &conv
		s.messages = messages
	}
	s.mu.Unlock()
}

// CreateConversation asks the backend for a new conversation, puts it at
// the front of the list, and makes it current with an empty transcript.
// Creation failure must be actionable, so the error propagates.
func (s *Store) CreateConversation(ctx context.Context, title string) (models.Conversation, error) {
	conv, err := s.gateway.CreateConversation(ctx, title)
	if err != nil {
		return models.Conversation{}, err
	}
	s.mu.Lock()
	s.conversations = append([]models.Conversation{conv}, s.conversations...)
	current := conv
	s.current = &current
	s.messages = nil
	s.listSeq++
	s.pairSeq++
	s.mu.Unlock()
	return conv, nil
}

// DeleteConversation removes a conversation server-side, then locally. If
// it was the current one, the conversation reference and transcript are
// cleared together. The error propagates to the caller.
func (s *Store) DeleteConversation(ctx context.Context, id int64) error {
	if err := s.gateway.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	kept := s.conversations[:0:0]
	for _, conv := range s.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	s.conversations = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.messages = nil
		s.pairSeq++
	}
	s.listSeq++
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.RemoveCachedConversation(id); err != nil {
			logging.Logger().Warn("conversation: drop cached conversation", "id", id, "error", err)
		}
	}
	return nil
}

// ClearCurrentConversation resets to the new-chat state: no current
// conversation, empty transcript, always together.
func (s *Store) ClearCurrentConversation() {
	s.mu.Lock()
	s.current = nil
	s.messages = nil
	s.pairSeq++
	s.mu.Unlock()
}

// SetCurrentConversation switches the current conversation locally. The
// transcript is cleared with it; callers load it separately.
func (s *Store) SetCurrentConversation(conv *models.Conversation) {
	s.mu.Lock()
	if conv == nil {
		s.current = nil
	} else {
		c := *conv
		s.current = &c
	}
	s.messages = nil
	s.pairSeq++
	s.mu.Unlock()
}

// writeTranscriptThrough caches the in-memory transcript for the current
// conversation after a successful send.
func (s *Store) writeTranscriptThrough() {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	conv := *s.current
	messages := append([]models.Message(nil), s.messages...)
	s.mu.Unlock()
	if err := s.cache.CacheTranscript(conv, messages); err != nil {
		logging.Logger().Warn("conversation: cache transcript", "id", conv.ID, "error", err)
	}
}

func (s *Store) setTyping(v bool) {
	s.mu.Lock()
	s.typing = v
	s.mu.Unlock()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
