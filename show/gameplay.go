package show

import (
	"context"
	"errors"
)

// SetCurrentComedian puts a comedian (or nobody, for a nil id) on stage.
// The live prompt is always cleared.
func (s *Service) SetCurrentComedian(ctx context.Context, id *string) error {
	if id != nil && *id == "" {
		id = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != nil {
		_, err := s.store.Comedian(ctx, *id)
		if errors.Is(err, ErrNoDocument) {
			return notFound("Comedian not found")
		}
		if err != nil {
			return err
		}
	}

	return s.store.SetSelection(ctx, id, nil)
}

// SetCurrentPrompt makes one of the live comedian's prompts live. A nil id
// clears the live prompt.
func (s *Service) SetCurrentPrompt(ctx context.Context, id *string) error {
	if id != nil && *id == "" {
		id = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gs, c, _, err := s.current(ctx)
	if err != nil {
		return err
	}

	if id == nil {
		return s.store.SetSelection(ctx, gs.CurrentComedianID, nil)
	}

	if c == nil {
		return ErrNoComedian
	}
	if c.Prompt(*id) == nil {
		return notFound("Prompt not found")
	}
	return s.store.SetSelection(ctx, &c.ID, id)
}

// livePrompt resolves the live comedian and prompt or fails.
func (s *Service) livePrompt(ctx context.Context) (*GameState, *Comedian, *Prompt, error) {
	gs, c, p, err := s.current(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if gs.CurrentComedianID == nil || gs.CurrentPromptID == nil {
		return nil, nil, nil, ErrNoCurrentPrompt
	}
	if c == nil {
		return nil, nil, nil, notFound("Comedian not found")
	}
	if p == nil {
		return nil, nil, nil, notFound("Prompt not found")
	}
	return gs, c, p, nil
}

// SubmitGuess records the defending team's guess on the live prompt. The
// defenders are the team opposite the comedian's; they score one point
// for a correct guess. Host prompts never score.
func (s *Service) SubmitGuess(ctx context.Context, guess Answer) error {
	if !guess.Valid() {
		return validationError("Guess must be truth or lie")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gs, c, p, err := s.livePrompt(ctx)
	if err != nil {
		return err
	}
	if p.Guess != nil {
		return ErrAlreadyAnswered
	}

	u := GuessUpdate{
		ComedianID: c.ID,
		PromptID:   p.ID,
		Guess:      &guess,
	}
	if team, ok := c.Team.Defenders(); ok && guess == p.Answer {
		u.ScoreTeam = team
		u.Score = gs.Teams.Score(team) + 1
	}

	return s.store.ApplyGuess(ctx, u)
}

// UndoGuess removes the guess on the live prompt, taking back the point
// it earned if it was correct.
func (s *Service) UndoGuess(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gs, c, p, err := s.livePrompt(ctx)
	if err != nil {
		return err
	}
	if p.Guess == nil {
		return ErrNothingToUndo
	}

	u := GuessUpdate{
		ComedianID: c.ID,
		PromptID:   p.ID,
	}
	if team, ok := c.Team.Defenders(); ok && *p.Guess == p.Answer {
		u.ScoreTeam = team
		u.Score = max(gs.Teams.Score(team)-1, 0)
	}

	return s.store.ApplyGuess(ctx, u)
}

// ResetGame clears the selection, both scores and every guess. The roster
// and its prompts are kept.
func (s *Service) ResetGame(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.ResetGame(ctx)
}

func (p GameStatePatch) validate() error {
	if p.Mode != nil && !p.Mode.Valid() {
		return validationError("Unknown mode")
	}
	if (p.TeamAScore != nil && *p.TeamAScore < 0) || (p.TeamBScore != nil && *p.TeamBScore < 0) {
		return validationError("Scores cannot be negative")
	}
	return nil
}

// UpdateGameState patches display fields and scores.
func (s *Service) UpdateGameState(ctx context.Context, patch GameStatePatch) error {
	if err := patch.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.PatchGameState(ctx, patch)
}
