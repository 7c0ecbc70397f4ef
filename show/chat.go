package show

import (
	"context"
	"errors"
	"slices"
	"strings"
)

const (
	defaultChatLimit = 50
	maxChatLimit     = 200
)

// SubmitChatMessage stores an audience member's message along with a
// snapshot of what was on stage. The deviceID must match the one the
// user registered with.
func (s *Service) SubmitChatMessage(ctx context.Context, username, text, deviceID string) (*ChatMessage, error) {
	username = normalize(username)
	text = strings.TrimSpace(text)
	if username == "" || text == "" || length(text) > MaxChatLength {
		return nil, validationError("Invalid message")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.store.AudienceUserByName(ctx, username)
	if errors.Is(err, ErrNoDocument) {
		return nil, unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, err
	}
	if u.DeviceID != deviceID {
		return nil, unauthorized("Unauthorized")
	}

	gs, c, p, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	msg := &ChatMessage{
		ID:            s.newID(),
		Username:      u.Username,
		Text:          text,
		Timestamp:     s.now(),
		GameMode:      ptr(gs.Mode),
		GameSessionID: ptr(gs.ID),
	}
	if c != nil {
		msg.ComedianID = ptr(c.ID)
		msg.ComedianName = ptr(c.Name)
		if p != nil {
			msg.PromptID = ptr(p.ID)
			msg.PromptText = ptr(p.Text)
		}
	}

	if err := s.store.InsertChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.store.AddAudienceStats(ctx, u.Username, AudienceDelta{MessageCount: 1}, msg.Timestamp); err != nil {
		return nil, err
	}
	return msg, nil
}

type ChatRequest struct {
	Limit         int
	GameSessionID string
	ComedianID    string
	Password      string
}

// ChatMessages returns recent history in chronological order. If a
// comedian id and password are both given they must match; without them
// the history is returned to anyone.
func (s *Service) ChatMessages(ctx context.Context, req ChatRequest) ([]ChatMessage, error) {
	if req.ComedianID != "" && req.Password != "" {
		c, err := s.store.Comedian(ctx, req.ComedianID)
		if err != nil && !errors.Is(err, ErrNoDocument) {
			return nil, err
		}
		if c == nil || c.Password != req.Password {
			return nil, unauthorized("Unauthorized")
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultChatLimit
	}
	limit = min(limit, maxChatLimit)

	msgs, err := s.store.ChatMessages(ctx, ChatQuery{GameSessionID: req.GameSessionID, Limit: limit})
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	if msgs == nil {
		msgs = []ChatMessage{}
	}
	return msgs, nil
}

// ClearChatMessages deletes the history of one game session, or all of it.
func (s *Service) ClearChatMessages(ctx context.Context, gameSessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.DeleteChatMessages(ctx, gameSessionID)
	return err
}
