// Package conversation holds the follow-up chat that is seeded with an analysis result.
package conversation

import (
	"context"
	"strings"
	"sync"

	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/i18n"
)

type State int

const (
	StateIdle State = iota
	StateSeeded
	StateAwaitingReply
)

func (s State) String() string {
	switch s {
	case StateSeeded:
		return "SEEDED"
	case StateAwaitingReply:
		return "AWAITING_REPLY"
	}
	return "IDLE"
}

// Chat is a remote chat context.
type Chat interface {
	SendMessage(ctx context.Context, text string) (string, error)
}

// Seed is what a new chat context is primed with.
type Seed struct {
	Query        string
	HasImage     bool
	FromFavorite bool
	Result       *entity.AnalysisResult
	Language     entity.Language
}

type ChatFactory func(seed Seed) (Chat, error)

// Observer receives a copy of the transcript after every change.
type Observer func(transcript []entity.ChatMessage)

type Controller struct {
	mu sync.Mutex

	factory  ChatFactory
	logger   logger.ILogger
	observer Observer

	state      State
	chat       Chat
	lang       entity.Language
	transcript []entity.ChatMessage
	epoch      uint64
}

func NewController(factory ChatFactory, log logger.ILogger) *Controller {
	return &Controller{
		factory:    factory,
		logger:     log,
		transcript: []entity.ChatMessage{},
	}
}

func (c *Controller) SetObserver(o Observer) {
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

// Seed discards any previous chat context and transcript and starts a new one.
// A reply still in flight for the old context is dropped when it lands.
func (c *Controller) Seed(seed Seed) error {
	chat, err := c.factory(seed)

	c.mu.Lock()
	c.epoch++
	c.transcript = []entity.ChatMessage{}
	if err != nil {
		c.state = StateIdle
		c.chat = nil
	} else {
		c.state = StateSeeded
		c.chat = chat
		c.lang = seed.Language
	}
	obs, snapshot := c.observer, c.snapshotLocked()
	c.mu.Unlock()

	notify(obs, snapshot)

	if err != nil {
		c.logger.Error("CONVERSATION", "Failed to create chat context", map[string]interface{}{"error": err.Error()})
		return apperr.Wrap(apperr.KindRemoteService, "conversation.seed", err)
	}
	return nil
}

// Reset returns to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.epoch++
	c.state = StateIdle
	c.chat = nil
	c.transcript = []entity.ChatMessage{}
	obs, snapshot := c.observer, c.snapshotLocked()
	c.mu.Unlock()

	notify(obs, snapshot)
}

// Send appends the user turn plus a loading placeholder, waits for the reply
// and replaces the placeholder with it. A remote failure becomes a localized
// error turn, not an error. Sending while not Seeded is a Conflict and leaves
// the transcript as it was.
func (c *Controller) Send(ctx context.Context, text string) (entity.ChatMessage, error) {
	const op = "conversation.send"

	text = strings.TrimSpace(text)
	if text == "" {
		return entity.ChatMessage{}, apperr.New(apperr.KindInputValidation, op, "message is empty")
	}

	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		return entity.ChatMessage{}, apperr.New(apperr.KindConflict, op, "no active chat")
	case StateAwaitingReply:
		c.mu.Unlock()
		return entity.ChatMessage{}, apperr.New(apperr.KindConflict, op, "a reply is already in flight")
	}

	c.transcript = append(c.transcript,
		entity.ChatMessage{Role: entity.ChatRoleUser, Content: text},
		entity.ChatMessage{Role: entity.ChatRoleModel, IsLoading: true},
	)
	c.state = StateAwaitingReply
	epoch, chat, lang := c.epoch, c.chat, c.lang
	obs, snapshot := c.observer, c.snapshotLocked()
	c.mu.Unlock()

	notify(obs, snapshot)

	reply, err := chat.SendMessage(ctx, text)

	msg := entity.ChatMessage{Role: entity.ChatRoleModel, Content: reply}
	if err != nil {
		c.logger.Warn("CONVERSATION", "Chat reply failed", map[string]interface{}{"error": err.Error()})
		msg.Content = i18n.T(lang, i18n.MsgChatError)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return entity.ChatMessage{}, apperr.New(apperr.KindConflict, op, "chat was replaced")
	}
	c.transcript[len(c.transcript)-1] = msg
	c.state = StateSeeded
	obs, snapshot = c.observer, c.snapshotLocked()
	c.mu.Unlock()

	notify(obs, snapshot)

	return msg, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Transcript() []entity.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() []entity.ChatMessage {
	return append([]entity.ChatMessage{}, c.transcript...)
}

func notify(o Observer, transcript []entity.ChatMessage) {
	if o != nil {
		o(transcript)
	}
}
