package show

// Viewer is one client's local browsing selection. It never reaches the
// server; only the explicit "set current" operations do.
type Viewer struct {
	ComedianID   string
	PromptID     string
	PendingGuess *Answer
}

// View is what a client derives from its Viewer and the last pushed state.
// The Can* predicates decide which mutating actions are offered; the
// server still validates each one on its own.
type View struct {
	ViewedComedian *Comedian
	ViewedPrompt   *Prompt

	IsViewedComedianCurrent bool
	IsViewedPromptCurrent   bool

	CanSetCurrentPrompt bool
	CanSubmit           bool
	CanUndo             bool
}

// Derive computes the view. With nothing picked locally, the live comedian
// and prompt are shown; with no live comedian either, the first one.
func (v Viewer) Derive(gs *GameState, comedians []Comedian) View {
	var out View

	comedianID := v.ComedianID
	if comedianID == "" && gs != nil && gs.CurrentComedianID != nil {
		comedianID = *gs.CurrentComedianID
	}
	if comedianID == "" && len(comedians) > 0 {
		comedianID = comedians[0].ID
	}
	for i := range comedians {
		if comedians[i].ID == comedianID {
			out.ViewedComedian = &comedians[i]
			break
		}
	}
	if out.ViewedComedian == nil {
		return out
	}

	promptID := v.PromptID
	if promptID == "" && gs != nil && gs.CurrentPromptID != nil {
		promptID = *gs.CurrentPromptID
	}
	if promptID != "" {
		out.ViewedPrompt = out.ViewedComedian.Prompt(promptID)
	}

	out.IsViewedComedianCurrent = gs.IsCurrentComedian(out.ViewedComedian.ID)
	out.IsViewedPromptCurrent = out.ViewedPrompt != nil && gs.IsCurrentPrompt(out.ViewedPrompt.ID)

	live := out.IsViewedComedianCurrent && out.IsViewedPromptCurrent
	out.CanSetCurrentPrompt = out.IsViewedComedianCurrent && out.ViewedPrompt != nil && !out.IsViewedPromptCurrent
	out.CanSubmit = live && out.ViewedPrompt.Guess == nil && v.PendingGuess != nil
	out.CanUndo = live && out.ViewedPrompt.Guess != nil

	return out
}
