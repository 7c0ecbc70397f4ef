/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Seednode/liarliar/show"
)

type handler func(ctx context.Context, c *Client, data json.RawMessage) error

// event is one inbound event. fallback is what the client is told when the
// handler fails with something that isn't a show.Error.
type event struct {
	fallback string
	handle   handler
}

var errInvalidPayload = &show.Error{Kind: show.ErrValidation, Message: "Invalid payload"}

// decode parses data into T. A missing or null payload decodes to the
// zero value.
func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errInvalidPayload
	}
	return v, nil
}

type promptInput struct {
	Text   string      `json:"text"`
	Answer show.Answer `json:"answer"`
}

type addComedianRequest struct {
	Name      string    `json:"name"`
	Instagram string    `json:"instagram"`
	Password  string    `json:"password"`
	Team      show.Team `json:"team"`
}

// updateComedianRequest has no prompts field, so any prompts sent along
// are dropped while decoding.
type updateComedianRequest struct {
	ID        string     `json:"_id"`
	Name      *string    `json:"name"`
	Instagram *string    `json:"instagram"`
	Password  *string    `json:"password"`
	Team      *show.Team `json:"team"`
}

type addPromptRequest struct {
	ComedianID string      `json:"comedianId"`
	Prompt     promptInput `json:"prompt"`
}

type updatePromptRequest struct {
	ComedianID string      `json:"comedianId"`
	Index      int         `json:"index"`
	Prompt     promptInput `json:"prompt"`
}

type removePromptRequest struct {
	ComedianID string `json:"comedianId"`
	Index      int    `json:"index"`
}

type submitGuessRequest struct {
	Guess show.Answer `json:"guess"`
}

type teamPatch struct {
	Name  *string `json:"name"`
	Score *int    `json:"score"`
}

type updateGameStateRequest struct {
	Mode           *show.Mode `json:"mode"`
	CustomText     *string    `json:"customText"`
	AnswerRevealed *bool      `json:"answerRevealed"`
	Teams          *struct {
		TeamA *teamPatch `json:"teamA"`
		TeamB *teamPatch `json:"teamB"`
	} `json:"teams"`
}

func (r updateGameStateRequest) patch() show.GameStatePatch {
	p := show.GameStatePatch{
		Mode:           r.Mode,
		CustomText:     r.CustomText,
		AnswerRevealed: r.AnswerRevealed,
	}
	if r.Teams != nil {
		if a := r.Teams.TeamA; a != nil {
			p.TeamAName, p.TeamAScore = a.Name, a.Score
		}
		if b := r.Teams.TeamB; b != nil {
			p.TeamBName, p.TeamBScore = b.Name, b.Score
		}
	}
	return p
}

type registerUsernameRequest struct {
	Username string `json:"username"`
	DeviceID string `json:"deviceId"`
}

type submitVoteRequest struct {
	PromptID string      `json:"promptId"`
	Username string      `json:"username"`
	Vote     show.Answer `json:"vote"`
}

type userVoteRequest struct {
	PromptID string `json:"promptId"`
	Username string `json:"username"`
}

type voteAccuracyRequest struct {
	PromptID     string      `json:"promptId"`
	ActualAnswer show.Answer `json:"actualAnswer"`
}

type chatMessageRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	DeviceID string `json:"deviceId"`
}

type chatHistoryRequest struct {
	Limit         int    `json:"limit"`
	GameSessionID string `json:"gameSessionId"`
	ComedianID    string `json:"comedianId"`
	Password      string `json:"password"`
}

type gameSessionRequest struct {
	GameSessionID string `json:"gameSessionId"`
}

type leaderboardRequest struct {
	GameSessionID string `json:"gameSessionId"`
	Limit         int    `json:"limit"`
}

type cleanupRequest struct {
	OlderThanHours float64 `json:"olderThanHours"`
}

type authenticateComicRequest struct {
	Instagram string `json:"instagram"`
	Password  string `json:"password"`
}

// Replies.

type audienceProfile struct {
	Username     string    `json:"username"`
	DeviceID     string    `json:"deviceId"`
	JoinedAt     time.Time `json:"joinedAt"`
	MessageCount *int      `json:"messageCount,omitempty"`
	VoteCount    *int      `json:"voteCount,omitempty"`
}

type result struct {
	Success  bool               `json:"success"`
	User     *audienceProfile   `json:"user,omitempty"`
	Comedian *show.ComicProfile `json:"comedian,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type usernameAvailability struct {
	Available bool    `json:"available"`
	Error     *string `json:"error"`
}

type audienceJoined struct {
	Username   string `json:"username"`
	TotalUsers int    `json:"totalUsers"`
}

type voteConfirmed struct {
	PromptID string      `json:"promptId"`
	UserVote show.Answer `json:"userVote"`
}

type userVoteResult struct {
	PromptID string       `json:"promptId"`
	UserVote *show.Answer `json:"userVote"`
	HasVoted bool         `json:"hasVoted"`
}

type accuracyUpdated struct {
	PromptID     string `json:"promptId"`
	UpdatedUsers int    `json:"updatedUsers"`
}

type usersCleanedUp struct {
	Deactivated int `json:"deactivated"`
}

func (h *Hub) eventTable() map[string]event {
	return map[string]event{
		"addComedian":    {"Failed to add comedian", h.addComedian},
		"updateComedian": {"Failed to update comedian", h.updateComedian},
		"removeComedian": {"Failed to remove comedian", h.removeComedian},
		"addPrompt":      {"Failed to add prompt", h.addPrompt},
		"updatePrompt":   {"Failed to update prompt", h.updatePrompt},
		"removePrompt":   {"Failed to remove prompt", h.removePrompt},
		"getComedians":   {"Failed to get comedians", h.getComedians},

		"setCurrentComedian": {"Failed to set current comedian", h.setCurrentComedian},
		"setCurrentPrompt":   {"Failed to set current prompt", h.setCurrentPrompt},
		"submitGuess":        {"Failed to submit guess", h.submitGuess},
		"undoGuess":          {"Failed to undo guess", h.undoGuess},
		"resetGame":          {"Failed to reset game", h.resetGame},
		"updateGameState":    {"Failed to update game state", h.updateGameState},

		"checkUsernameAvailable": {"Server error", h.checkUsernameAvailable},
		"registerUsername":       {"Failed to register username", h.registerUsername},
		"restoreSession":         {"Failed to restore session", h.restoreSession},
		"getAudienceStats":       {"Failed to get audience stats", h.getAudienceStats},
		"cleanupInactiveUsers":   {"Failed to cleanup users", h.cleanupInactiveUsers},
		"getLeaderboard":         {"Failed to get leaderboard", h.getLeaderboard},

		"submitVote":         {"Failed to submit vote", h.submitVote},
		"getVoteResults":     {"Failed to get vote results", h.getVoteResults},
		"getUserVote":        {"Failed to get user vote", h.getUserVote},
		"updateVoteAccuracy": {"Failed to update accuracy", h.updateVoteAccuracy},
		"clearPromptVotes":   {"Failed to clear votes", h.clearPromptVotes},

		"submitChatMessage": {"Failed to send message", h.submitChatMessage},
		"getChatMessages":   {"Failed to get messages", h.getChatMessages},
		"clearChatMessages": {"Failed to clear chat", h.clearChatMessages},

		"authenticateComic": {"Server error during authentication", h.authenticateComic},
	}
}

func (h *Hub) addComedian(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[addComedianRequest](data)
	if err != nil {
		return err
	}

	if _, err := h.svc.AddComedian(ctx, show.NewComedian(req)); err != nil {
		return err
	}
	return h.publish(ctx, false, true)
}

func (h *Hub) updateComedian(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[updateComedianRequest](data)
	if err != nil {
		return err
	}

	patch := show.ComedianPatch{
		Name:      req.Name,
		Instagram: req.Instagram,
		Password:  req.Password,
		Team:      req.Team,
	}
	if err := h.svc.UpdateComedian(ctx, req.ID, patch); err != nil {
		return err
	}
	return h.publish(ctx, false, true)
}

func (h *Hub) removeComedian(ctx context.Context, _ *Client, data json.RawMessage) error {
	id, err := decode[string](data)
	if err != nil {
		return err
	}

	if err := h.svc.RemoveComedian(ctx, id); err != nil {
		return err
	}
	return h.publish(ctx, true, true)
}

func (h *Hub) addPrompt(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[addPromptRequest](data)
	if err != nil {
		return err
	}

	if _, err := h.svc.AddPrompt(ctx, req.ComedianID, req.Prompt.Text, req.Prompt.Answer); err != nil {
		return err
	}
	return h.publish(ctx, false, true)
}

func (h *Hub) updatePrompt(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[updatePromptRequest](data)
	if err != nil {
		return err
	}

	if err := h.svc.UpdatePrompt(ctx, req.ComedianID, req.Index, req.Prompt.Text, req.Prompt.Answer); err != nil {
		return err
	}
	return h.publish(ctx, false, true)
}

func (h *Hub) removePrompt(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[removePromptRequest](data)
	if err != nil {
		return err
	}

	if err := h.svc.RemovePrompt(ctx, req.ComedianID, req.Index); err != nil {
		return err
	}
	return h.publish(ctx, true, true)
}

// getComedians resends the roster to one client, as its role may see it.
func (h *Hub) getComedians(ctx context.Context, c *Client, _ json.RawMessage) error {
	list, err := h.svc.Comedians(ctx)
	if err != nil {
		return err
	}

	h.reply(c, "comediansList", projectComedians(c.role, list))
	return nil
}

func (h *Hub) setCurrentComedian(ctx context.Context, _ *Client, data json.RawMessage) error {
	id, err := decode[*string](data)
	if err != nil {
		return err
	}

	if err := h.svc.SetCurrentComedian(ctx, id); err != nil {
		return err
	}
	return h.publish(ctx, true, false)
}

func (h *Hub) setCurrentPrompt(ctx context.Context, _ *Client, data json.RawMessage) error {
	id, err := decode[*string](data)
	if err != nil {
		return err
	}

	if err := h.svc.SetCurrentPrompt(ctx, id); err != nil {
		return err
	}
	return h.publish(ctx, true, false)
}

func (h *Hub) submitGuess(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[submitGuessRequest](data)
	if err != nil {
		return err
	}

	if err := h.svc.SubmitGuess(ctx, req.Guess); err != nil {
		return err
	}
	return h.publish(ctx, true, true)
}

func (h *Hub) undoGuess(ctx context.Context, _ *Client, _ json.RawMessage) error {
	if err := h.svc.UndoGuess(ctx); err != nil {
		return err
	}
	return h.publish(ctx, true, true)
}

func (h *Hub) resetGame(ctx context.Context, _ *Client, _ json.RawMessage) error {
	if err := h.svc.ResetGame(ctx); err != nil {
		return err
	}
	return h.publish(ctx, true, true)
}

func (h *Hub) updateGameState(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[updateGameStateRequest](data)
	if err != nil {
		return err
	}

	if err := h.svc.UpdateGameState(ctx, req.patch()); err != nil {
		return err
	}
	return h.publish(ctx, true, false)
}

func (h *Hub) checkUsernameAvailable(ctx context.Context, c *Client, data json.RawMessage) error {
	username, err := decode[string](data)
	if err != nil {
		return err
	}

	reply := usernameAvailability{Available: true}
	if err := h.svc.CheckUsername(ctx, username); err != nil {
		logf(h.cfg, "EVENT: Username %q unavailable to %s: %v", username, c.id, err)
		msg := show.UserMessage(err, "Server error")
		reply = usernameAvailability{Error: &msg}
	}

	h.reply(c, "usernameAvailability", reply)
	return nil
}

func (h *Hub) registerUsername(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[registerUsernameRequest](data)
	if err != nil {
		return err
	}

	u, err := h.svc.RegisterUsername(ctx, req.Username, req.DeviceID)
	if err != nil {
		if !errors.As(err, new(*show.Error)) {
			logf(h.cfg, "ERROR: registerUsername from %s: %v", c.id, err)
		}
		h.reply(c, "usernameRegistered", result{Error: show.UserMessage(err, "Failed to register username")})
		return nil
	}

	h.reply(c, "usernameRegistered", result{
		Success: true,
		User:    &audienceProfile{Username: u.Username, DeviceID: u.DeviceID, JoinedAt: u.JoinedAt},
	})

	total, err := h.svc.ActiveAudience(ctx)
	if err != nil {
		return err
	}
	h.broadcast("audienceUserJoined", audienceJoined{Username: u.Username, TotalUsers: total}, nil)
	return nil
}

func (h *Hub) restoreSession(ctx context.Context, c *Client, data json.RawMessage) error {
	deviceID, err := decode[string](data)
	if err != nil {
		return err
	}

	u, err := h.svc.RestoreSession(ctx, deviceID)
	if err != nil {
		if !errors.As(err, new(*show.Error)) {
			logf(h.cfg, "ERROR: restoreSession from %s: %v", c.id, err)
		}
		h.reply(c, "sessionRestored", result{Error: show.UserMessage(err, "Failed to restore session")})
		return nil
	}

	h.reply(c, "sessionRestored", result{
		Success: true,
		User: &audienceProfile{
			Username:     u.Username,
			DeviceID:     u.DeviceID,
			JoinedAt:     u.JoinedAt,
			MessageCount: &u.MessageCount,
			VoteCount:    &u.VoteCount,
		},
	})
	return nil
}

func (h *Hub) getAudienceStats(ctx context.Context, c *Client, _ json.RawMessage) error {
	stats, err := h.svc.AudienceStats(ctx)
	if err != nil {
		return err
	}

	h.reply(c, "audienceStats", stats)
	return nil
}

func (h *Hub) cleanupInactiveUsers(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[cleanupRequest](data)
	if err != nil {
		return err
	}

	hours := req.OlderThanHours
	if hours <= 0 {
		hours = 24
	}

	n, err := h.svc.DeactivateIdleAudience(ctx, time.Duration(hours*float64(time.Hour)))
	if err != nil {
		return err
	}

	h.reply(c, "usersCleanedUp", usersCleanedUp{Deactivated: n})
	return nil
}

func (h *Hub) getLeaderboard(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[leaderboardRequest](data)
	if err != nil {
		return err
	}

	board, err := h.svc.Leaderboard(ctx, req.GameSessionID, req.Limit)
	if err != nil {
		return err
	}

	h.reply(c, "leaderboard", board)
	return nil
}

func (h *Hub) submitVote(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[submitVoteRequest](data)
	if err != nil {
		return err
	}

	tally, err := h.svc.SubmitVote(ctx, req.PromptID, req.Username, req.Vote)
	if err != nil {
		return err
	}

	h.reply(c, "voteConfirmed", voteConfirmed{PromptID: req.PromptID, UserVote: req.Vote})
	h.broadcast("voteResults", tally, nil)
	return nil
}

func (h *Hub) getVoteResults(ctx context.Context, c *Client, data json.RawMessage) error {
	promptID, err := decode[string](data)
	if err != nil {
		return err
	}

	tally, err := h.svc.VoteResults(ctx, promptID, true)
	if err != nil {
		return err
	}

	h.reply(c, "voteResults", tally)
	return nil
}

func (h *Hub) getUserVote(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[userVoteRequest](data)
	if err != nil {
		return err
	}

	v, err := h.svc.UserVote(ctx, req.PromptID, req.Username)
	if err != nil {
		return err
	}

	reply := userVoteResult{PromptID: req.PromptID}
	if v != nil {
		reply.UserVote = &v.Vote
		reply.HasVoted = true
	}
	h.reply(c, "userVoteResult", reply)
	return nil
}

func (h *Hub) updateVoteAccuracy(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[voteAccuracyRequest](data)
	if err != nil {
		return err
	}

	n, err := h.svc.UpdateVoteAccuracy(ctx, req.PromptID, req.ActualAnswer)
	if err != nil {
		return err
	}

	h.reply(c, "accuracyUpdated", accuracyUpdated{PromptID: req.PromptID, UpdatedUsers: n})
	return nil
}

func (h *Hub) clearPromptVotes(ctx context.Context, _ *Client, data json.RawMessage) error {
	promptID, err := decode[string](data)
	if err != nil {
		return err
	}

	if err := h.svc.ClearPromptVotes(ctx, promptID); err != nil {
		return err
	}

	h.broadcast("voteResults", &show.VoteTally{PromptID: promptID}, nil)
	return nil
}

func (h *Hub) submitChatMessage(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[chatMessageRequest](data)
	if err != nil {
		return err
	}

	msg, err := h.svc.SubmitChatMessage(ctx, req.Username, req.Text, req.DeviceID)
	if err != nil {
		return err
	}

	h.broadcast("newChatMessage", msg, notAudience)
	return nil
}

func (h *Hub) getChatMessages(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[chatHistoryRequest](data)
	if err != nil {
		return err
	}

	msgs, err := h.svc.ChatMessages(ctx, show.ChatRequest(req))
	if err != nil {
		return err
	}

	h.reply(c, "chatMessages", msgs)
	return nil
}

func (h *Hub) clearChatMessages(ctx context.Context, _ *Client, data json.RawMessage) error {
	req, err := decode[gameSessionRequest](data)
	if err != nil {
		return err
	}

	if err := h.svc.ClearChatMessages(ctx, req.GameSessionID); err != nil {
		return err
	}

	h.broadcast("chatCleared", nil, nil)
	return nil
}

func (h *Hub) authenticateComic(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[authenticateComicRequest](data)
	if err != nil {
		return err
	}

	profile, err := h.svc.AuthenticateComic(ctx, req.Instagram, req.Password)
	if err != nil {
		msg := show.UserMessage(err, "Server error during authentication")
		if !errors.As(err, new(*show.Error)) {
			logf(h.cfg, "ERROR: authenticateComic from %s: %v", c.id, err)
		}
		h.reply(c, "authResult", result{Error: msg})
		return nil
	}

	h.reply(c, "authResult", result{Success: true, Comedian: profile})
	return nil
}
