package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kisansahay/kisan-sahay/backend/internal/model/chat"
	"github.com/kisansahay/kisan-sahay/backend/internal/service/ai"
)

var (
	ErrEmptyMessage = errors.New("message needs text or an image")
	ErrBusy         = errors.New("a request is already in flight")
	ErrNotConfirmed = errors.New("clearing the conversation requires confirmation")
)

// User-facing wording for the two advisory failure kinds. The web client
// shows these verbatim inside the error turn.
const (
	rateLimitedText   = "Too many requests. Please wait a moment."
	requestFailedText = "Failed to get advice. Check your internet or API key."
)

// Advisor is the single remote call the conversation depends on.
type Advisor interface {
	GetAdvisory(ctx context.Context, text, image string) (string, error)
}

// Listener receives a copied snapshot after every state change. Reactions
// (persistence, the websocket feed) subscribe here and stay decoupled from
// the state machine itself.
type Listener func(chat.Snapshot)

// Service owns the conversation state machine: an ordered message list, a
// loading flag and the last error. It is Idle or Awaiting — exactly one
// advisory call may be outstanding, enforced by the Submit guard.
type Service struct {
	advisor Advisor

	mu        sync.RWMutex
	messages  []chat.Message
	loading   bool
	lastError string
	epoch     uint64

	listeners []Listener
	now       func() time.Time
}

// NewService creates an empty Idle conversation backed by the given advisor.
func NewService(advisor Advisor) *Service {
	return &Service{
		advisor: advisor,
		now:     time.Now,
	}
}

// Hydrate seeds the message list from a persisted snapshot. It replaces the
// current history without notifying listeners, so loading stored state does
// not immediately echo a save back to the store.
func (s *Service) Hydrate(messages []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append([]chat.Message(nil), messages...)
}

// OnChange registers a listener for state mutations. Register everything
// before the service starts taking submissions.
func (s *Service) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of the current conversation state.
func (s *Service) Snapshot() chat.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Submit appends the farmer's message optimistically and kicks off the
// advisory call. It rejects empty input and refuses to start a second call
// while one is outstanding. The returned message is the appended user turn.
func (s *Service) Submit(ctx context.Context, text, image string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return chat.Message{}, ErrBusy
	}

	msg := chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleUser,
		Text:      text,
		Image:     image,
		Timestamp: s.now().UnixMilli(),
	}
	s.messages = append(s.messages, msg)
	s.loading = true
	s.lastError = ""
	epoch := s.epoch
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	// The HTTP request that triggered the submission finishes immediately;
	// the advisory call must outlive its context.
	go s.complete(context.WithoutCancel(ctx), epoch, text, image)

	return msg, nil
}

// Clear resets the conversation to the empty Idle state. It requires the
// caller to pass the user's explicit confirmation and works even while a
// request is outstanding — the stale response is fenced off by epoch.
func (s *Service) Clear(confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	s.mu.Lock()
	s.messages = nil
	s.loading = false
	s.lastError = ""
	s.epoch++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// complete resolves an outstanding advisory call. Failures become normal
// model turns — from the client's perspective they are conversational, not
// exceptional.
func (s *Service) complete(ctx context.Context, epoch uint64, text, image string) {
	reply, err := s.advisor.GetAdvisory(ctx, text, image)

	s.mu.Lock()
	if epoch != s.epoch {
		// The conversation was cleared while this call was in flight;
		// drop the late response instead of appending it to the fresh list.
		s.mu.Unlock()
		return
	}

	msg := chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleModel,
		Timestamp: s.now().UnixMilli(),
	}
	if err != nil {
		failure := failureText(err)
		msg.Text = "Error: " + failure
		s.lastError = failure
	} else {
		msg.Text = reply
	}

	s.messages = append(s.messages, msg)
	s.loading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Service) snapshotLocked() chat.Snapshot {
	return chat.Snapshot{
		Messages:  append([]chat.Message(nil), s.messages...),
		IsLoading: s.loading,
		Error:     s.lastError,
	}
}

func (s *Service) notify(snap chat.Snapshot) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
}

func failureText(err error) string {
	if errors.Is(err, ai.ErrRateLimited) {
		return rateLimitedText
	}
	return requestFailedText
}
