package show

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

var testTime = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	svc := NewService(store)
	svc.now = func() time.Time { return testTime }

	var ids, devices atomic.Int64
	svc.newID = func() string {
		return fmt.Sprintf("id-%d", ids.Add(1))
	}
	svc.newDeviceID = func() string {
		return fmt.Sprintf("device-%d", devices.Add(1))
	}
	return svc, store
}

func addComedian(t *testing.T, svc *Service, name string, team Team, prompts ...Answer) *Comedian {
	t.Helper()

	ctx := context.Background()
	c, err := svc.AddComedian(ctx, NewComedian{Name: name, Instagram: "@" + name, Password: "pw-" + name, Team: team})
	if err != nil {
		t.Fatalf("add comedian %s: %v", name, err)
	}
	for i, answer := range prompts {
		if _, err := svc.AddPrompt(ctx, c.ID, fmt.Sprintf("%s story %d", name, i), answer); err != nil {
			t.Fatalf("add prompt: %v", err)
		}
	}

	stored, err := svc.store.Comedian(ctx, c.ID)
	if err != nil {
		t.Fatalf("get comedian: %v", err)
	}
	return stored
}

// goLive puts the comedian and their prompt at index on stage.
func goLive(t *testing.T, svc *Service, c *Comedian, index int) {
	t.Helper()

	ctx := context.Background()
	if err := svc.SetCurrentComedian(ctx, &c.ID); err != nil {
		t.Fatalf("set current comedian: %v", err)
	}
	if err := svc.SetCurrentPrompt(ctx, &c.Prompts[index].ID); err != nil {
		t.Fatalf("set current prompt: %v", err)
	}
}

func gameState(t *testing.T, svc *Service) *GameState {
	t.Helper()

	gs, err := svc.GameState(context.Background())
	if err != nil {
		t.Fatalf("game state: %v", err)
	}
	return gs
}

func comedian(t *testing.T, svc *Service, id string) *Comedian {
	t.Helper()

	c, err := svc.store.Comedian(context.Background(), id)
	if err != nil {
		t.Fatalf("get comedian %s: %v", id, err)
	}
	return c
}

func TestAddComedianValidation(t *testing.T) {
	tests := []struct {
		name  string
		input NewComedian
	}{
		{"empty name", NewComedian{Name: "", Password: "x", Team: TeamA}},
		{"blank name", NewComedian{Name: "   ", Password: "x", Team: TeamA}},
		{"empty password", NewComedian{Name: "Ada", Password: "", Team: TeamA}},
		{"unknown team", NewComedian{Name: "Ada", Password: "x", Team: "teamC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			ctx := context.Background()

			_, err := svc.AddComedian(ctx, tt.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("AddComedian() error = %v, want validation error", err)
			}

			all, err := svc.Comedians(ctx)
			if err != nil {
				t.Fatalf("comedians: %v", err)
			}
			if len(all) != 0 {
				t.Fatalf("comedian count = %d, want 0", len(all))
			}
		})
	}
}

func TestAddComedianDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.AddComedian(context.Background(), NewComedian{Name: " Ada ", Password: "x"})
	if err != nil {
		t.Fatalf("add comedian: %v", err)
	}
	if c.Name != "Ada" {
		t.Errorf("name = %q, want trimmed", c.Name)
	}
	if c.Team != Host {
		t.Errorf("team = %q, want %q", c.Team, Host)
	}
	if c.Prompts == nil || len(c.Prompts) != 0 {
		t.Errorf("prompts = %v, want empty", c.Prompts)
	}
}

func TestUpdateComedianNeverTouchesPrompts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA, Truth, Lie)

	name := "Ada Lovelace"
	team := TeamB
	if err := svc.UpdateComedian(ctx, c.ID, ComedianPatch{Name: &name, Team: &team}); err != nil {
		t.Fatalf("update comedian: %v", err)
	}

	got := comedian(t, svc, c.ID)
	if got.Name != name || got.Team != team {
		t.Errorf("got %q/%q, want %q/%q", got.Name, got.Team, name, team)
	}
	if got.Instagram != c.Instagram || got.Password != c.Password {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if len(got.Prompts) != 2 {
		t.Errorf("prompt count = %d, want 2", len(got.Prompts))
	}

	err := svc.UpdateComedian(ctx, "missing", ComedianPatch{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: error = %v, want not found", err)
	}

	empty := ""
	err = svc.UpdateComedian(ctx, c.ID, ComedianPatch{Password: &empty})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("empty password: error = %v, want validation error", err)
	}
}

func TestRemoveComedianClearsLiveSelection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA, Truth)
	other := addComedian(t, svc, "bob", TeamB, Lie)
	goLive(t, svc, c, 0)

	if err := svc.RemoveComedian(ctx, other.ID); err != nil {
		t.Fatalf("remove other: %v", err)
	}
	if gs := gameState(t, svc); !gs.IsCurrentComedian(c.ID) {
		t.Fatalf("removing another comedian changed the selection")
	}

	if err := svc.RemoveComedian(ctx, c.ID); err != nil {
		t.Fatalf("remove live: %v", err)
	}
	gs := gameState(t, svc)
	if gs.CurrentComedianID != nil || gs.CurrentPromptID != nil {
		t.Errorf("selection = %v/%v, want cleared", gs.CurrentComedianID, gs.CurrentPromptID)
	}

	if err := svc.RemoveComedian(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove twice: error = %v, want not found", err)
	}
}

func TestPromptLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA)

	if _, err := svc.AddPrompt(ctx, c.ID, "", Truth); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty text: error = %v, want validation error", err)
	}
	if _, err := svc.AddPrompt(ctx, c.ID, "I met a bear", "maybe"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad answer: error = %v, want validation error", err)
	}
	if _, err := svc.AddPrompt(ctx, "missing", "I met a bear", Truth); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing comedian: error = %v, want not found", err)
	}

	first, err := svc.AddPrompt(ctx, c.ID, "I met a bear", Truth)
	if err != nil {
		t.Fatalf("add prompt: %v", err)
	}
	if first.ID == "" || first.Guess != nil {
		t.Fatalf("new prompt = %+v, want id and no guess", first)
	}
	if _, err := svc.AddPrompt(ctx, c.ID, "I was a mime", Lie); err != nil {
		t.Fatalf("add prompt: %v", err)
	}

	got := comedian(t, svc, c.ID)
	if len(got.Prompts) != 2 || got.Prompts[1].Text != "I was a mime" {
		t.Fatalf("prompts = %+v, want appended in order", got.Prompts)
	}

	if err := svc.UpdatePrompt(ctx, c.ID, 0, "I fought a bear", Lie); err != nil {
		t.Fatalf("update prompt: %v", err)
	}
	got = comedian(t, svc, c.ID)
	if p := got.Prompts[0]; p.Text != "I fought a bear" || p.Answer != Lie || p.ID != first.ID {
		t.Fatalf("updated prompt = %+v", p)
	}

	if err := svc.UpdatePrompt(ctx, c.ID, 2, "x", Truth); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("update index 2: error = %v, want out of range", err)
	}
	if err := svc.RemovePrompt(ctx, c.ID, 5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("remove index 5: error = %v, want out of range", err)
	}
	if err := svc.RemovePrompt(ctx, c.ID, -1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("remove index -1: error = %v, want out of range", err)
	}
	if got := comedian(t, svc, c.ID); len(got.Prompts) != 2 {
		t.Fatalf("failed removals changed prompts: %+v", got.Prompts)
	}

	if err := svc.RemovePrompt(ctx, c.ID, 0); err != nil {
		t.Fatalf("remove prompt: %v", err)
	}
	got = comedian(t, svc, c.ID)
	if len(got.Prompts) != 1 || got.Prompts[0].Text != "I was a mime" {
		t.Errorf("prompts after removal = %+v", got.Prompts)
	}
}

func TestUpdatePromptKeepsGuess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA, Lie)
	goLive(t, svc, c, 0)

	if err := svc.SubmitGuess(ctx, Truth); err != nil {
		t.Fatalf("submit guess: %v", err)
	}
	if err := svc.UpdatePrompt(ctx, c.ID, 0, "new text", Lie); err != nil {
		t.Fatalf("update prompt: %v", err)
	}

	p := comedian(t, svc, c.ID).Prompts[0]
	if p.Guess == nil || *p.Guess != Truth {
		t.Errorf("guess = %v, want truth kept", p.Guess)
	}
}

func TestRemoveLivePromptClearsIt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA, Truth, Lie)
	goLive(t, svc, c, 1)

	if err := svc.RemovePrompt(ctx, c.ID, 0); err != nil {
		t.Fatalf("remove other prompt: %v", err)
	}
	if gs := gameState(t, svc); !gs.IsCurrentPrompt(c.Prompts[1].ID) {
		t.Fatalf("removing another prompt changed the live prompt")
	}

	if err := svc.RemovePrompt(ctx, c.ID, 0); err != nil {
		t.Fatalf("remove live prompt: %v", err)
	}
	gs := gameState(t, svc)
	if gs.CurrentPromptID != nil {
		t.Errorf("current prompt = %v, want nil", *gs.CurrentPromptID)
	}
	if !gs.IsCurrentComedian(c.ID) {
		t.Errorf("current comedian was cleared")
	}
}

func TestSetCurrentComedianAlwaysClearsPrompt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := addComedian(t, svc, "ada", TeamA, Truth)
	b := addComedian(t, svc, "bob", TeamB, Lie)

	for _, id := range []*string{&a.ID, &b.ID, nil, &a.ID} {
		goLive(t, svc, a, 0)

		if err := svc.SetCurrentComedian(ctx, id); err != nil {
			t.Fatalf("set current comedian: %v", err)
		}
		gs := gameState(t, svc)
		if gs.CurrentPromptID != nil {
			t.Fatalf("current prompt = %q, want nil", *gs.CurrentPromptID)
		}
		if id == nil && gs.CurrentComedianID != nil {
			t.Fatalf("current comedian = %q, want nil", *gs.CurrentComedianID)
		}
		if id != nil && !gs.IsCurrentComedian(*id) {
			t.Fatalf("current comedian = %v, want %q", gs.CurrentComedianID, *id)
		}
	}

	missing := "missing"
	if err := svc.SetCurrentComedian(ctx, &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown comedian: error = %v, want not found", err)
	}
}

func TestSetCurrentPromptMustBelongToCurrentComedian(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := addComedian(t, svc, "ada", TeamA, Truth)
	b := addComedian(t, svc, "bob", TeamB, Lie)

	if err := svc.SetCurrentPrompt(ctx, &a.Prompts[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no current comedian: error = %v, want not found", err)
	}

	if err := svc.SetCurrentComedian(ctx, &a.ID); err != nil {
		t.Fatalf("set current comedian: %v", err)
	}
	if err := svc.SetCurrentPrompt(ctx, &b.Prompts[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other comedian's prompt: error = %v, want not found", err)
	}
	if gs := gameState(t, svc); gs.CurrentPromptID != nil {
		t.Fatalf("failed call set current prompt %q", *gs.CurrentPromptID)
	}

	if err := svc.SetCurrentPrompt(ctx, &a.Prompts[0].ID); err != nil {
		t.Fatalf("own prompt: %v", err)
	}
	if gs := gameState(t, svc); !gs.IsCurrentPrompt(a.Prompts[0].ID) {
		t.Fatalf("current prompt not set")
	}

	if err := svc.SetCurrentPrompt(ctx, nil); err != nil {
		t.Fatalf("clear prompt: %v", err)
	}
	gs := gameState(t, svc)
	if gs.CurrentPromptID != nil || !gs.IsCurrentComedian(a.ID) {
		t.Errorf("clearing the prompt: got %v/%v", gs.CurrentComedianID, gs.CurrentPromptID)
	}
}

func TestSubmitAndUndoGuessScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA, Lie)
	goLive(t, svc, c, 0)

	before := gameState(t, svc).Teams

	if err := svc.SubmitGuess(ctx, Lie); err != nil {
		t.Fatalf("submit guess: %v", err)
	}
	gs := gameState(t, svc)
	if gs.Teams.TeamB.Score != before.TeamB.Score+1 {
		t.Errorf("teamB score = %d, want %d", gs.Teams.TeamB.Score, before.TeamB.Score+1)
	}
	if gs.Teams.TeamA.Score != before.TeamA.Score {
		t.Errorf("teamA score changed to %d", gs.Teams.TeamA.Score)
	}
	if p := comedian(t, svc, c.ID).Prompts[0]; p.Guess == nil || *p.Guess != Lie {
		t.Fatalf("guess = %v, want lie", p.Guess)
	}

	if err := svc.UndoGuess(ctx); err != nil {
		t.Fatalf("undo guess: %v", err)
	}
	gs = gameState(t, svc)
	if gs.Teams != before {
		t.Errorf("teams after undo = %+v, want %+v", gs.Teams, before)
	}
	if p := comedian(t, svc, c.ID).Prompts[0]; p.Guess != nil {
		t.Errorf("guess after undo = %v, want none", *p.Guess)
	}
}

func TestSubmitUndoIsNetZero(t *testing.T) {
	for _, team := range []Team{TeamA, TeamB, Host} {
		for _, answer := range []Answer{Truth, Lie} {
			for _, guess := range []Answer{Truth, Lie} {
				name := fmt.Sprintf("%s/%s/%s", team, answer, guess)
				t.Run(name, func(t *testing.T) {
					svc, _ := newTestService(t)
					ctx := context.Background()
					c := addComedian(t, svc, "ada", team, answer)
					goLive(t, svc, c, 0)

					before := gameState(t, svc).Teams
					if err := svc.SubmitGuess(ctx, guess); err != nil {
						t.Fatalf("submit guess: %v", err)
					}

					after := gameState(t, svc).Teams
					gained := (after.TeamA.Score - before.TeamA.Score) + (after.TeamB.Score - before.TeamB.Score)
					want := 0
					if team != Host && guess == answer {
						want = 1
					}
					if gained != want {
						t.Errorf("points awarded = %d, want %d", gained, want)
					}
					if defenders, ok := team.Defenders(); ok && want == 1 && after.Score(defenders) != before.Score(defenders)+1 {
						t.Errorf("point went to the wrong team: %+v", after)
					}

					if err := svc.UndoGuess(ctx); err != nil {
						t.Fatalf("undo guess: %v", err)
					}
					if got := gameState(t, svc).Teams; got != before {
						t.Errorf("teams = %+v, want %+v", got, before)
					}
				})
			}
		}
	}
}

func TestGuessPreconditions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA, Truth)

	if err := svc.SubmitGuess(ctx, Truth); !errors.Is(err, ErrNoCurrentPrompt) {
		t.Fatalf("nothing live: error = %v, want %v", err, ErrNoCurrentPrompt)
	}
	if err := svc.UndoGuess(ctx); !errors.Is(err, ErrNoCurrentPrompt) {
		t.Fatalf("nothing live: error = %v, want %v", err, ErrNoCurrentPrompt)
	}

	goLive(t, svc, c, 0)

	if err := svc.SubmitGuess(ctx, "probably"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad guess: error = %v, want validation error", err)
	}
	if err := svc.UndoGuess(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("undo unguessed: error = %v, want %v", err, ErrNothingToUndo)
	}
	if err := svc.SubmitGuess(ctx, Truth); err != nil {
		t.Fatalf("submit guess: %v", err)
	}

	before := gameState(t, svc).Teams
	err := svc.SubmitGuess(ctx, Lie)
	if !errors.Is(err, ErrAlreadyAnswered) || !errors.Is(err, ErrConflict) {
		t.Fatalf("second guess: error = %v, want %v", err, ErrAlreadyAnswered)
	}
	if got := gameState(t, svc).Teams; got != before {
		t.Errorf("failed guess changed scores: %+v", got)
	}
	if p := comedian(t, svc, c.ID).Prompts[0]; *p.Guess != Truth {
		t.Errorf("failed guess changed guess to %v", *p.Guess)
	}
}

func TestUndoNeverGoesNegative(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA, Truth)
	goLive(t, svc, c, 0)

	if err := svc.SubmitGuess(ctx, Truth); err != nil {
		t.Fatalf("submit guess: %v", err)
	}
	zero := 0
	if err := svc.UpdateGameState(ctx, GameStatePatch{TeamBScore: &zero}); err != nil {
		t.Fatalf("update game state: %v", err)
	}
	if err := svc.UndoGuess(ctx); err != nil {
		t.Fatalf("undo guess: %v", err)
	}
	if got := gameState(t, svc).Teams.TeamB.Score; got != 0 {
		t.Errorf("teamB score = %d, want 0", got)
	}
}

func TestResetGame(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := addComedian(t, svc, "ada", TeamA, Truth, Lie)
	b := addComedian(t, svc, "bob", TeamB, Lie)

	goLive(t, svc, a, 0)
	if err := svc.SubmitGuess(ctx, Truth); err != nil {
		t.Fatalf("submit guess: %v", err)
	}
	goLive(t, svc, b, 0)
	if err := svc.SubmitGuess(ctx, Lie); err != nil {
		t.Fatalf("submit guess: %v", err)
	}

	mode := ModeScoring
	if err := svc.UpdateGameState(ctx, GameStatePatch{Mode: &mode}); err != nil {
		t.Fatalf("update game state: %v", err)
	}

	before, err := svc.Comedians(ctx)
	if err != nil {
		t.Fatalf("comedians: %v", err)
	}

	if err := svc.ResetGame(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	gs := gameState(t, svc)
	if gs.CurrentComedianID != nil || gs.CurrentPromptID != nil {
		t.Errorf("selection not cleared: %v/%v", gs.CurrentComedianID, gs.CurrentPromptID)
	}
	if gs.Teams.TeamA.Score != 0 || gs.Teams.TeamB.Score != 0 {
		t.Errorf("scores = %d/%d, want 0/0", gs.Teams.TeamA.Score, gs.Teams.TeamB.Score)
	}
	if gs.Mode != ModeScoring {
		t.Errorf("mode = %q, reset should leave it alone", gs.Mode)
	}

	after, err := svc.Comedians(ctx)
	if err != nil {
		t.Fatalf("comedians: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("comedian count = %d, want %d", len(after), len(before))
	}
	for i := range after {
		was, now := before[i], after[i]
		if was.Name != now.Name || was.Instagram != now.Instagram || was.Team != now.Team || len(was.Prompts) != len(now.Prompts) {
			t.Errorf("comedian changed: %+v -> %+v", was, now)
			continue
		}
		for j := range now.Prompts {
			if now.Prompts[j].Text != was.Prompts[j].Text || now.Prompts[j].Answer != was.Prompts[j].Answer {
				t.Errorf("prompt changed: %+v -> %+v", was.Prompts[j], now.Prompts[j])
			}
			if now.Prompts[j].Guess != nil {
				t.Errorf("prompt %s still has guess %v", now.Prompts[j].ID, *now.Prompts[j].Guess)
			}
		}
	}
}

func TestUpdateGameState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	gs := gameState(t, svc)
	if gs.Mode != ModeWelcome || gs.CustomText != DefaultCustomText || gs.Teams.TeamA.Name != DefaultTeamAName {
		t.Fatalf("defaults = %+v", gs)
	}

	mode := ModeIntermission
	text := "Back in five"
	name := "Doubters"
	score := 3
	if err := svc.UpdateGameState(ctx, GameStatePatch{Mode: &mode, CustomText: &text, TeamAName: &name, TeamBScore: &score}); err != nil {
		t.Fatalf("update game state: %v", err)
	}
	gs = gameState(t, svc)
	if gs.Mode != mode || gs.CustomText != text || gs.Teams.TeamA.Name != name || gs.Teams.TeamB.Score != score {
		t.Errorf("patched state = %+v", gs)
	}
	if gs.Teams.TeamB.Name != DefaultTeamBName {
		t.Errorf("unpatched team name changed to %q", gs.Teams.TeamB.Name)
	}

	bad := Mode("karaoke")
	if err := svc.UpdateGameState(ctx, GameStatePatch{Mode: &bad}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown mode: error = %v, want validation error", err)
	}
	negative := -1
	if err := svc.UpdateGameState(ctx, GameStatePatch{TeamAScore: &negative}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative score: error = %v, want validation error", err)
	}
}

func TestAuthenticateComic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := addComedian(t, svc, "ada", TeamA)

	profile, err := svc.AuthenticateComic(ctx, "@ADA", "pw-ada")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if profile.ID != c.ID || profile.Team != TeamA {
		t.Errorf("profile = %+v", profile)
	}

	tests := []struct {
		name      string
		instagram string
		password  string
		want      error
	}{
		{"wrong password", "@ada", "PW-ADA", ErrUnauthorized},
		{"unknown handle", "@bob", "pw-ada", ErrNotFound},
		{"missing password", "@ada", "", ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AuthenticateComic(ctx, tt.instagram, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrDuplicateVote, "Failed"); got != "Already voted for this prompt" {
		t.Errorf("UserMessage(duplicate vote) = %q", got)
	}
	if got := UserMessage(fmt.Errorf("wrapped: %w", ErrNothingToUndo), "Failed"); got != "Nothing to undo" {
		t.Errorf("UserMessage(wrapped) = %q", got)
	}
	if got := UserMessage(errors.New("connection reset"), "Failed to undo guess"); got != "Failed to undo guess" {
		t.Errorf("UserMessage(store error) = %q", got)
	}
}
