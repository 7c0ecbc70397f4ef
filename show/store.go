package show

import (
	"context"
	"time"
)

// GameStatePatch updates only the non-nil fields.
type GameStatePatch struct {
	Mode           *Mode
	CustomText     *string
	AnswerRevealed *bool
	TeamAName      *string
	TeamAScore     *int
	TeamBName      *string
	TeamBScore     *int
}

func (p GameStatePatch) apply(g *GameState) {
	if p.Mode != nil {
		g.Mode = *p.Mode
	}
	if p.CustomText != nil {
		g.CustomText = *p.CustomText
	}
	if p.AnswerRevealed != nil {
		g.AnswerRevealed = *p.AnswerRevealed
	}
	if p.TeamAName != nil {
		g.Teams.TeamA.Name = *p.TeamAName
	}
	if p.TeamAScore != nil {
		g.Teams.TeamA.Score = *p.TeamAScore
	}
	if p.TeamBName != nil {
		g.Teams.TeamB.Name = *p.TeamBName
	}
	if p.TeamBScore != nil {
		g.Teams.TeamB.Score = *p.TeamBScore
	}
}

// ComedianPatch updates only the non-nil fields. Prompts change only
// through the prompt operations.
type ComedianPatch struct {
	Name      *string
	Instagram *string
	Password  *string
	Team      *Team
}

func (p ComedianPatch) apply(c *Comedian) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Instagram != nil {
		c.Instagram = *p.Instagram
	}
	if p.Password != nil {
		c.Password = *p.Password
	}
	if p.Team != nil {
		c.Team = *p.Team
	}
}

// GuessUpdate sets (or, with a nil Guess, clears) the guess on one prompt
// and optionally sets a team score. Stores apply both or neither.
type GuessUpdate struct {
	ComedianID string
	PromptID   string
	Guess      *Answer
	ScoreTeam  Team
	Score      int
}

// AudienceDelta is added to an audience user's counters.
type AudienceDelta struct {
	MessageCount int
	VoteCount    int
	TotalVotes   int
}

// AudienceQuery selects audience users. Zero values match everything.
type AudienceQuery struct {
	ActiveOnly    bool
	GameSessionID string
	Limit         int
}

type ChatQuery struct {
	GameSessionID string
	Limit         int
}

// Store persists everything the show knows about. Implementations must
// enforce uniqueness of (Vote.PromptID, Vote.Username), of
// AudienceUser.Username and of AudienceUser.DeviceID, returning
// ErrDuplicateKey on violation. Lookups that match nothing return
// ErrNoDocument.
type Store interface {
	// GameState returns the singleton, creating it from NewGameState if absent.
	GameState(ctx context.Context) (*GameState, error)
	PatchGameState(ctx context.Context, patch GameStatePatch) error
	SetSelection(ctx context.Context, comedianID, promptID *string) error
	// ResetGame clears selections and scores and strips every prompt's guess.
	ResetGame(ctx context.Context) error

	Comedians(ctx context.Context) ([]Comedian, error)
	Comedian(ctx context.Context, id string) (*Comedian, error)
	// ComedianByInstagram matches the handle case-insensitively.
	ComedianByInstagram(ctx context.Context, instagram string) (*Comedian, error)
	InsertComedian(ctx context.Context, c *Comedian) error
	PatchComedian(ctx context.Context, id string, patch ComedianPatch) error
	DeleteComedian(ctx context.Context, id string) error
	AppendPrompt(ctx context.Context, comedianID string, p Prompt) error
	ReplacePrompt(ctx context.Context, comedianID string, index int, text string, answer Answer) error
	RemovePrompt(ctx context.Context, comedianID string, index int) (Prompt, error)
	ApplyGuess(ctx context.Context, u GuessUpdate) error

	InsertAudienceUser(ctx context.Context, u *AudienceUser) error
	AudienceUserByName(ctx context.Context, username string) (*AudienceUser, error)
	// AudienceUserByDevice only matches active users.
	AudienceUserByDevice(ctx context.Context, deviceID string) (*AudienceUser, error)
	TouchAudienceUser(ctx context.Context, username string, at time.Time) error
	AddAudienceStats(ctx context.Context, username string, d AudienceDelta, at time.Time) error
	SetAudienceSession(ctx context.Context, username, gameSessionID string) error
	// RecordVoteOutcome bumps correctVotes and the streak, or resets the streak.
	RecordVoteOutcome(ctx context.Context, username string, correct bool) error
	CountAudience(ctx context.Context, q AudienceQuery) (int, error)
	// RecentAudience lists users by most recent activity.
	RecentAudience(ctx context.Context, q AudienceQuery) ([]AudienceUser, error)
	// Leaderboard lists users by correctVotes desc, totalVotes asc, username asc.
	Leaderboard(ctx context.Context, q AudienceQuery) ([]AudienceUser, error)
	DeactivateAudience(ctx context.Context, idleSince time.Time) (int, error)
	PurgeAudience(ctx context.Context, idleSince time.Time) (int, error)

	InsertVote(ctx context.Context, v *Vote) error
	Vote(ctx context.Context, promptID, username string) (*Vote, error)
	Votes(ctx context.Context, promptID string) ([]Vote, error)
	DeleteVotes(ctx context.Context, promptID string) (int, error)

	InsertChatMessage(ctx context.Context, m *ChatMessage) error
	// ChatMessages returns the newest messages first.
	ChatMessages(ctx context.Context, q ChatQuery) ([]ChatMessage, error)
	DeleteChatMessages(ctx context.Context, gameSessionID string) (int, error)
}
