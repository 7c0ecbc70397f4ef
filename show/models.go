/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package show holds the state of a Liar, Liar show: the comedian roster,
// the live game state, audience members, their votes and their chat.
package show

import (
	"time"
)

// Mode is what the display screen is currently showing.
type Mode string

const (
	ModeWelcome      Mode = "welcome"
	ModeGame         Mode = "game"
	ModeIntermission Mode = "intermission"
	ModeScoring      Mode = "scoring"
	ModeEnd          Mode = "end"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeWelcome, ModeGame, ModeIntermission, ModeScoring, ModeEnd:
		return true
	}
	return false
}

// Answer is both the ground truth of a prompt and a guess at it.
type Answer string

const (
	Truth Answer = "truth"
	Lie   Answer = "lie"
)

func (a Answer) Valid() bool {
	return a == Truth || a == Lie
}

type Team string

const (
	TeamA Team = "teamA"
	TeamB Team = "teamB"
	Host  Team = "host"
)

func (t Team) Valid() bool {
	return t == TeamA || t == TeamB || t == Host
}

// Defenders returns the team that guesses on this team's prompts.
// Host prompts have no defenders.
func (t Team) Defenders() (Team, bool) {
	switch t {
	case TeamA:
		return TeamB, true
	case TeamB:
		return TeamA, true
	}
	return "", false
}

type Prompt struct {
	ID     string  `json:"_id" bson:"_id"`
	Text   string  `json:"text" bson:"text"`
	Answer Answer  `json:"answer,omitempty" bson:"answer"`
	Guess  *Answer `json:"guess,omitempty" bson:"guess,omitempty"`
}

type Comedian struct {
	ID        string   `json:"_id" bson:"_id"`
	Name      string   `json:"name" bson:"name"`
	Instagram string   `json:"instagram" bson:"instagram"`
	Password  string   `json:"password,omitempty" bson:"password"`
	Team      Team     `json:"team" bson:"team"`
	Prompts   []Prompt `json:"prompts" bson:"prompts"`
}

// Prompt returns the embedded prompt with the given id, or nil.
func (c *Comedian) Prompt(id string) *Prompt {
	for i := range c.Prompts {
		if c.Prompts[i].ID == id {
			return &c.Prompts[i]
		}
	}
	return nil
}

// Clone returns a deep copy, so callers can hand it out without sharing
// prompt slices or guess pointers.
func (c Comedian) Clone() Comedian {
	out := c
	out.Prompts = make([]Prompt, len(c.Prompts))
	for i, p := range c.Prompts {
		if p.Guess != nil {
			g := *p.Guess
			p.Guess = &g
		}
		out.Prompts[i] = p
	}
	return out
}

type TeamScore struct {
	Name  string `json:"name" bson:"name"`
	Score int    `json:"score" bson:"score"`
}

type Teams struct {
	TeamA TeamScore `json:"teamA" bson:"teamA"`
	TeamB TeamScore `json:"teamB" bson:"teamB"`
}

func (t *Teams) score(team Team) *TeamScore {
	switch team {
	case TeamA:
		return &t.TeamA
	case TeamB:
		return &t.TeamB
	}
	return nil
}

// Score returns the score of teamA or teamB; any other team scores zero.
func (t Teams) Score(team Team) int {
	if s := t.score(team); s != nil {
		return s.Score
	}
	return 0
}

// GameState is the singleton live state of the show.
type GameState struct {
	ID                string  `json:"_id" bson:"_id"`
	Mode              Mode    `json:"mode" bson:"mode"`
	CurrentComedianID *string `json:"currentComedianId" bson:"currentComedianId"`
	CurrentPromptID   *string `json:"currentPromptId" bson:"currentPromptId"`
	AnswerRevealed    bool    `json:"answerRevealed" bson:"answerRevealed"`
	CustomText        string  `json:"customText" bson:"customText"`
	Teams             Teams   `json:"teams" bson:"teams"`
}

const (
	DefaultCustomText = "Liar, Liar!"
	DefaultTeamAName  = "Team Skeptics"
	DefaultTeamBName  = "Team Believers"
)

// NewGameState returns the state a fresh show starts in.
func NewGameState(id string) *GameState {
	return &GameState{
		ID:         id,
		Mode:       ModeWelcome,
		CustomText: DefaultCustomText,
		Teams: Teams{
			TeamA: TeamScore{Name: DefaultTeamAName},
			TeamB: TeamScore{Name: DefaultTeamBName},
		},
	}
}

func (g GameState) Clone() GameState {
	out := g
	if g.CurrentComedianID != nil {
		id := *g.CurrentComedianID
		out.CurrentComedianID = &id
	}
	if g.CurrentPromptID != nil {
		id := *g.CurrentPromptID
		out.CurrentPromptID = &id
	}
	return out
}

// IsCurrentComedian reports whether id is the live comedian.
func (g *GameState) IsCurrentComedian(id string) bool {
	return g != nil && g.CurrentComedianID != nil && *g.CurrentComedianID == id
}

// IsCurrentPrompt reports whether id is the live prompt.
func (g *GameState) IsCurrentPrompt(id string) bool {
	return g != nil && g.CurrentPromptID != nil && *g.CurrentPromptID == id
}

type Vote struct {
	ID            string    `json:"_id" bson:"_id"`
	PromptID      string    `json:"promptId" bson:"promptId"`
	Username      string    `json:"username" bson:"username"`
	Vote          Answer    `json:"vote" bson:"vote"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	GameSessionID string    `json:"gameSessionId,omitempty" bson:"gameSessionId,omitempty"`
	ComedianID    string    `json:"comedianId,omitempty" bson:"comedianId,omitempty"`
	PromptAnswer  *Answer   `json:"promptAnswer,omitempty" bson:"promptAnswer,omitempty"`
}

type AudienceUser struct {
	ID                   string    `json:"_id" bson:"_id"`
	Username             string    `json:"username" bson:"username"`
	DeviceID             string    `json:"deviceId" bson:"deviceId"`
	JoinedAt             time.Time `json:"joinedAt" bson:"joinedAt"`
	LastActiveAt         time.Time `json:"lastActiveAt" bson:"lastActiveAt"`
	IsActive             bool      `json:"isActive" bson:"isActive"`
	MessageCount         int       `json:"messageCount" bson:"messageCount"`
	VoteCount            int       `json:"voteCount" bson:"voteCount"`
	CorrectVotes         int       `json:"correctVotes" bson:"correctVotes"`
	TotalVotes           int       `json:"totalVotes" bson:"totalVotes"`
	CurrentGameSessionID string    `json:"currentGameSessionId,omitempty" bson:"currentGameSessionId,omitempty"`
	CurrentStreak        int       `json:"currentStreak" bson:"currentStreak"`
	LongestStreak        int       `json:"longestStreak" bson:"longestStreak"`
}

// Accuracy is the share of correct votes as a rounded percentage.
func (u AudienceUser) Accuracy() int {
	if u.TotalVotes == 0 {
		return 0
	}
	return (u.CorrectVotes*100 + u.TotalVotes/2) / u.TotalVotes
}

// ChatMessage keeps a snapshot of the game context at send time; it is
// never rewritten when the game moves on.
type ChatMessage struct {
	ID            string    `json:"_id" bson:"_id"`
	Username      string    `json:"username" bson:"username"`
	Text          string    `json:"text" bson:"text"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	ComedianID    *string   `json:"comedianId" bson:"comedianId"`
	ComedianName  *string   `json:"comedianName" bson:"comedianName"`
	PromptID      *string   `json:"promptId" bson:"promptId"`
	PromptText    *string   `json:"promptText" bson:"promptText"`
	GameMode      *Mode     `json:"gameMode" bson:"gameMode"`
	GameSessionID *string   `json:"gameSessionId" bson:"gameSessionId"`
}

// MaxChatLength is the longest chat message accepted, in characters.
const MaxChatLength = 500
