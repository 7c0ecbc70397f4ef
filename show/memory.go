package show

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps the show in process memory. It is used when no
// database is configured, and by tests.
type MemoryStore struct {
	mu sync.RWMutex

	state     *GameState
	comedians []Comedian
	audience  map[string]*AudienceUser // username -> user
	devices   map[string]string        // deviceId -> username
	votes     []Vote
	voteKeys  map[[2]string]bool // (promptId, username)
	chat      []ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		audience: make(map[string]*AudienceUser),
		devices:  make(map[string]string),
		voteKeys: make(map[[2]string]bool),
	}
}

func (m *MemoryStore) stateLocked() *GameState {
	if m.state == nil {
		m.state = NewGameState(primitive.NewObjectID().Hex())
	}
	return m.state
}

func (m *MemoryStore) GameState(ctx context.Context) (*GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	gs := m.stateLocked().Clone()
	return &gs, nil
}

func (m *MemoryStore) PatchGameState(ctx context.Context, patch GameStatePatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	patch.apply(m.stateLocked())
	return nil
}

func (m *MemoryStore) SetSelection(ctx context.Context, comedianID, promptID *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	gs := m.stateLocked()
	gs.CurrentComedianID = cloneString(comedianID)
	gs.CurrentPromptID = cloneString(promptID)
	return nil
}

func (m *MemoryStore) ResetGame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	gs := m.stateLocked()
	gs.CurrentComedianID = nil
	gs.CurrentPromptID = nil
	gs.Teams.TeamA.Score = 0
	gs.Teams.TeamB.Score = 0

	for i := range m.comedians {
		for j := range m.comedians[i].Prompts {
			m.comedians[i].Prompts[j].Guess = nil
		}
	}
	return nil
}

func (m *MemoryStore) Comedians(ctx context.Context) ([]Comedian, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Comedian, 0, len(m.comedians))
	for _, c := range m.comedians {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (m *MemoryStore) comedianLocked(id string) *Comedian {
	for i := range m.comedians {
		if m.comedians[i].ID == id {
			return &m.comedians[i]
		}
	}
	return nil
}

func (m *MemoryStore) Comedian(ctx context.Context, id string) (*Comedian, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.comedianLocked(id)
	if c == nil {
		return nil, ErrNoDocument
	}
	out := c.Clone()
	return &out, nil
}

func (m *MemoryStore) ComedianByInstagram(ctx context.Context, instagram string) (*Comedian, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.comedians {
		if strings.EqualFold(c.Instagram, instagram) {
			out := c.Clone()
			return &out, nil
		}
	}
	return nil, ErrNoDocument
}

func (m *MemoryStore) InsertComedian(ctx context.Context, c *Comedian) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.comedianLocked(c.ID) != nil {
		return ErrDuplicateKey
	}
	m.comedians = append(m.comedians, c.Clone())
	return nil
}

func (m *MemoryStore) PatchComedian(ctx context.Context, id string, patch ComedianPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.comedianLocked(id)
	if c == nil {
		return ErrNoDocument
	}
	patch.apply(c)
	return nil
}

func (m *MemoryStore) DeleteComedian(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.comedians)
	m.comedians = slices.DeleteFunc(m.comedians, func(c Comedian) bool {
		return c.ID == id
	})
	if len(m.comedians) == n {
		return ErrNoDocument
	}
	return nil
}

func (m *MemoryStore) AppendPrompt(ctx context.Context, comedianID string, p Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.comedianLocked(comedianID)
	if c == nil {
		return ErrNoDocument
	}
	p.Guess = nil
	c.Prompts = append(c.Prompts, p)
	return nil
}

func (m *MemoryStore) ReplacePrompt(ctx context.Context, comedianID string, index int, text string, answer Answer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.comedianLocked(comedianID)
	if c == nil || index < 0 || index >= len(c.Prompts) {
		return ErrNoDocument
	}
	c.Prompts[index].Text = text
	c.Prompts[index].Answer = answer
	return nil
}

func (m *MemoryStore) RemovePrompt(ctx context.Context, comedianID string, index int) (Prompt, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.comedianLocked(comedianID)
	if c == nil || index < 0 || index >= len(c.Prompts) {
		return Prompt{}, ErrNoDocument
	}
	removed := c.Prompts[index]
	c.Prompts = slices.Delete(c.Prompts, index, index+1)
	return removed, nil
}

func (m *MemoryStore) ApplyGuess(ctx context.Context, u GuessUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.comedianLocked(u.ComedianID)
	if c == nil {
		return ErrNoDocument
	}
	p := c.Prompt(u.PromptID)
	if p == nil {
		return ErrNoDocument
	}

	if u.Guess != nil {
		g := *u.Guess
		p.Guess = &g
	} else {
		p.Guess = nil
	}

	if s := m.stateLocked().Teams.score(u.ScoreTeam); s != nil {
		s.Score = u.Score
	}
	return nil
}

func (m *MemoryStore) InsertAudienceUser(ctx context.Context, u *AudienceUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.audience[u.Username]; ok {
		return ErrDuplicateKey
	}
	if _, ok := m.devices[u.DeviceID]; ok {
		return ErrDuplicateKey
	}

	stored := *u
	m.audience[u.Username] = &stored
	m.devices[u.DeviceID] = u.Username
	return nil
}

func (m *MemoryStore) AudienceUserByName(ctx context.Context, username string) (*AudienceUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.audience[username]
	if !ok {
		return nil, ErrNoDocument
	}
	out := *u
	return &out, nil
}

func (m *MemoryStore) AudienceUserByDevice(ctx context.Context, deviceID string) (*AudienceUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	username, ok := m.devices[deviceID]
	if !ok {
		return nil, ErrNoDocument
	}
	u := m.audience[username]
	if u == nil || !u.IsActive {
		return nil, ErrNoDocument
	}
	out := *u
	return &out, nil
}

func (m *MemoryStore) updateAudience(ctx context.Context, username string, fn func(*AudienceUser)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.audience[username]
	if !ok {
		return ErrNoDocument
	}
	fn(u)
	return nil
}

func (m *MemoryStore) TouchAudienceUser(ctx context.Context, username string, at time.Time) error {
	return m.updateAudience(ctx, username, func(u *AudienceUser) {
		u.LastActiveAt = at
	})
}

func (m *MemoryStore) AddAudienceStats(ctx context.Context, username string, d AudienceDelta, at time.Time) error {
	return m.updateAudience(ctx, username, func(u *AudienceUser) {
		u.MessageCount += d.MessageCount
		u.VoteCount += d.VoteCount
		u.TotalVotes += d.TotalVotes
		if !at.IsZero() {
			u.LastActiveAt = at
		}
	})
}

func (m *MemoryStore) SetAudienceSession(ctx context.Context, username, gameSessionID string) error {
	return m.updateAudience(ctx, username, func(u *AudienceUser) {
		u.CurrentGameSessionID = gameSessionID
	})
}

func (m *MemoryStore) RecordVoteOutcome(ctx context.Context, username string, correct bool) error {
	return m.updateAudience(ctx, username, func(u *AudienceUser) {
		if !correct {
			u.CurrentStreak = 0
			return
		}
		u.CorrectVotes++
		u.CurrentStreak++
		u.LongestStreak = max(u.LongestStreak, u.CurrentStreak)
	})
}

func (m *MemoryStore) matchAudienceLocked(q AudienceQuery) []AudienceUser {
	out := make([]AudienceUser, 0, len(m.audience))
	for _, u := range m.audience {
		if q.ActiveOnly && !u.IsActive {
			continue
		}
		if q.GameSessionID != "" && u.CurrentGameSessionID != q.GameSessionID {
			continue
		}
		out = append(out, *u)
	}
	return out
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func (m *MemoryStore) CountAudience(ctx context.Context, q AudienceQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.matchAudienceLocked(q)), nil
}

func (m *MemoryStore) RecentAudience(ctx context.Context, q AudienceQuery) ([]AudienceUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	users := m.matchAudienceLocked(q)
	m.mu.RUnlock()

	slices.SortFunc(users, func(a, b AudienceUser) int {
		return b.LastActiveAt.Compare(a.LastActiveAt)
	})
	return limit(users, q.Limit), nil
}

func (m *MemoryStore) Leaderboard(ctx context.Context, q AudienceQuery) ([]AudienceUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	users := m.matchAudienceLocked(q)
	m.mu.RUnlock()

	slices.SortFunc(users, func(a, b AudienceUser) int {
		return cmp.Or(
			cmp.Compare(b.CorrectVotes, a.CorrectVotes),
			cmp.Compare(a.TotalVotes, b.TotalVotes),
			cmp.Compare(a.Username, b.Username),
		)
	})
	return limit(users, q.Limit), nil
}

func (m *MemoryStore) DeactivateAudience(ctx context.Context, idleSince time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, u := range m.audience {
		if u.IsActive && u.LastActiveAt.Before(idleSince) {
			u.IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) PurgeAudience(ctx context.Context, idleSince time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for name, u := range m.audience {
		if !u.IsActive && u.LastActiveAt.Before(idleSince) {
			delete(m.devices, u.DeviceID)
			delete(m.audience, name)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertVote(ctx context.Context, v *Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]string{v.PromptID, v.Username}
	if m.voteKeys[key] {
		return ErrDuplicateKey
	}
	m.voteKeys[key] = true
	m.votes = append(m.votes, *v)
	return nil
}

func (m *MemoryStore) Vote(ctx context.Context, promptID, username string) (*Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.votes {
		if v.PromptID == promptID && v.Username == username {
			out := v
			return &out, nil
		}
	}
	return nil, ErrNoDocument
}

func (m *MemoryStore) Votes(ctx context.Context, promptID string) ([]Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Vote
	for _, v := range m.votes {
		if v.PromptID == promptID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteVotes(ctx context.Context, promptID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.votes)
	m.votes = slices.DeleteFunc(m.votes, func(v Vote) bool {
		if v.PromptID != promptID {
			return false
		}
		delete(m.voteKeys, [2]string{v.PromptID, v.Username})
		return true
	})
	return n - len(m.votes), nil
}

func (m *MemoryStore) InsertChatMessage(ctx context.Context, msg *ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.chat = append(m.chat, *msg)
	return nil
}

func (m *MemoryStore) ChatMessages(ctx context.Context, q ChatQuery) ([]ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ChatMessage
	for i := len(m.chat) - 1; i >= 0; i-- {
		msg := m.chat[i]
		if q.GameSessionID != "" && (msg.GameSessionID == nil || *msg.GameSessionID != q.GameSessionID) {
			continue
		}
		out = append(out, msg)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteChatMessages(ctx context.Context, gameSessionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.chat)
	m.chat = slices.DeleteFunc(m.chat, func(msg ChatMessage) bool {
		return gameSessionID == "" || (msg.GameSessionID != nil && *msg.GameSessionID == gameSessionID)
	})
	return n - len(m.chat), nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ Store = (*MemoryStore)(nil)
