package show

import (
	"context"
	"errors"
	"strings"
)

type NewComedian struct {
	Name      string
	Instagram string
	Password  string
	Team      Team
}

func (n NewComedian) validate() error {
	if strings.TrimSpace(n.Name) == "" || n.Password == "" {
		return validationError("Name and password are required")
	}
	if n.Team != "" && !n.Team.Valid() {
		return validationError("Team must be teamA, teamB or host")
	}
	return nil
}

// AddComedian creates a comedian with no prompts. A missing team defaults
// to host.
func (s *Service) AddComedian(ctx context.Context, n NewComedian) (*Comedian, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}

	team := n.Team
	if team == "" {
		team = Host
	}

	c := &Comedian{
		ID:        s.newID(),
		Name:      strings.TrimSpace(n.Name),
		Instagram: strings.TrimSpace(n.Instagram),
		Password:  n.Password,
		Team:      team,
		Prompts:   []Prompt{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.InsertComedian(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (p ComedianPatch) validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return validationError("Name cannot be empty")
	}
	if p.Password != nil && *p.Password == "" {
		return validationError("Password cannot be empty")
	}
	if p.Team != nil && !p.Team.Valid() {
		return validationError("Team must be teamA, teamB or host")
	}
	return nil
}

// UpdateComedian applies the provided fields only. Prompts cannot be
// changed this way.
func (s *Service) UpdateComedian(ctx context.Context, id string, patch ComedianPatch) error {
	if id == "" {
		return validationError("Comedian id is required")
	}
	if err := patch.validate(); err != nil {
		return err
	}
	if patch.Name != nil {
		patch.Name = ptr(strings.TrimSpace(*patch.Name))
	}
	if patch.Instagram != nil {
		patch.Instagram = ptr(strings.TrimSpace(*patch.Instagram))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.PatchComedian(ctx, id, patch)
	if errors.Is(err, ErrNoDocument) {
		return notFound("Comedian not found")
	}
	return err
}

// RemoveComedian deletes a comedian and their prompts. If they were live,
// the selection is cleared.
func (s *Service) RemoveComedian(ctx context.Context, id string) error {
	if id == "" {
		return validationError("Comedian id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.DeleteComedian(ctx, id)
	if errors.Is(err, ErrNoDocument) {
		return notFound("Comedian not found")
	}
	if err != nil {
		return err
	}

	gs, err := s.store.GameState(ctx)
	if err != nil {
		return err
	}
	if gs.IsCurrentComedian(id) {
		return s.store.SetSelection(ctx, nil, nil)
	}
	return nil
}

func validatePrompt(text string, answer Answer) error {
	if strings.TrimSpace(text) == "" {
		return validationError("Prompt text is required")
	}
	if !answer.Valid() {
		return validationError("Answer must be truth or lie")
	}
	return nil
}

// AddPrompt appends a prompt, without a guess, to the comedian's list.
func (s *Service) AddPrompt(ctx context.Context, comedianID, text string, answer Answer) (*Prompt, error) {
	if comedianID == "" {
		return nil, validationError("Comedian id is required")
	}
	if err := validatePrompt(text, answer); err != nil {
		return nil, err
	}

	p := Prompt{
		ID:     s.newID(),
		Text:   strings.TrimSpace(text),
		Answer: answer,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.AppendPrompt(ctx, comedianID, p)
	if errors.Is(err, ErrNoDocument) {
		return nil, notFound("Comedian not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// promptIndex checks that the comedian exists and index addresses one of
// their prompts.
func (s *Service) promptIndex(ctx context.Context, comedianID string, index int) (*Comedian, error) {
	if comedianID == "" {
		return nil, validationError("Comedian id is required")
	}

	c, err := s.store.Comedian(ctx, comedianID)
	if errors.Is(err, ErrNoDocument) {
		return nil, notFound("Comedian not found")
	}
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.Prompts) {
		return nil, outOfRange("Prompt index out of range")
	}
	return c, nil
}

// UpdatePrompt replaces the text and answer of the prompt at index. Any
// guess already made is kept.
func (s *Service) UpdatePrompt(ctx context.Context, comedianID string, index int, text string, answer Answer) error {
	if err := validatePrompt(text, answer); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.promptIndex(ctx, comedianID, index); err != nil {
		return err
	}

	err := s.store.ReplacePrompt(ctx, comedianID, index, strings.TrimSpace(text), answer)
	if errors.Is(err, ErrNoDocument) {
		return outOfRange("Prompt index out of range")
	}
	return err
}

// RemovePrompt splices out the prompt at index. If it was live, the live
// prompt is cleared.
func (s *Service) RemovePrompt(ctx context.Context, comedianID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.promptIndex(ctx, comedianID, index); err != nil {
		return err
	}

	removed, err := s.store.RemovePrompt(ctx, comedianID, index)
	if errors.Is(err, ErrNoDocument) {
		return outOfRange("Prompt index out of range")
	}
	if err != nil {
		return err
	}

	gs, err := s.store.GameState(ctx)
	if err != nil {
		return err
	}
	if gs.IsCurrentPrompt(removed.ID) {
		return s.store.SetSelection(ctx, gs.CurrentComedianID, nil)
	}
	return nil
}

// ComicProfile is what a successfully authenticated comedian learns
// about themselves.
type ComicProfile struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Instagram string `json:"instagram"`
	Team      Team   `json:"team"`
}

// AuthenticateComic matches the instagram handle case-insensitively and
// the password exactly. Passwords are stored and compared in plain text.
func (s *Service) AuthenticateComic(ctx context.Context, instagram, password string) (*ComicProfile, error) {
	instagram = strings.TrimSpace(instagram)
	if instagram == "" || password == "" {
		return nil, validationError("Instagram handle and password required")
	}

	c, err := s.store.ComedianByInstagram(ctx, instagram)
	if errors.Is(err, ErrNoDocument) {
		return nil, notFound("Comedian not found")
	}
	if err != nil {
		return nil, err
	}
	if c.Password != password {
		return nil, unauthorized("Invalid password")
	}

	return &ComicProfile{
		ID:        c.ID,
		Name:      c.Name,
		Instagram: c.Instagram,
		Team:      c.Team,
	}, nil
}
