package gemini

import (
	"context"
	"errors"
	"sync"

	"trend-finder-be/pkg/apperr"
)

// ChatSession is a stateful conversation over generateContent. The history is
// resent on every turn; a turn is recorded only after the reply arrives.
type ChatSession struct {
	mu sync.Mutex

	gen     Generator
	model   string
	system  *Content
	history []*Content
}

func NewChatSession(gen Generator, model, systemInstruction string, history []*Content) *ChatSession {
	var system *Content
	if systemInstruction != "" {
		system = &Content{Parts: []*Part{{Text: systemInstruction}}}
	}
	return &ChatSession{
		gen:     gen,
		model:   model,
		system:  system,
		history: append([]*Content(nil), history...),
	}
}

func (s *ChatSession) SendMessage(ctx context.Context, text string) (string, error) {
	userTurn := TextContent(RoleUser, text)

	s.mu.Lock()
	contents := make([]*Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userTurn)
	s.mu.Unlock()

	res, err := s.gen.GenerateContent(ctx, s.model, &GenerateContentRequest{
		Contents:          contents,
		SystemInstruction: s.system,
	})
	if err != nil {
		return "", err
	}

	reply := res.Text()
	if reply == "" {
		return "", apperr.Wrap(apperr.KindRemoteService, "gemini.chat", errors.New("empty reply"))
	}

	s.mu.Lock()
	s.history = append(s.history, userTurn, TextContent(RoleModel, reply))
	s.mu.Unlock()

	return reply, nil
}

func (s *ChatSession) History() []*Content {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*Content(nil), s.history...)
}
