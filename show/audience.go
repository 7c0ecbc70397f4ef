package show

import (
	"context"
	"errors"
	"time"
)

const (
	minUsernameLength = 2
	maxUsernameLength = 20

	recentAudienceLimit     = 10
	defaultLeaderboardLimit = 20
)

func validateUsername(username string) error {
	switch n := length(username); {
	case n < minUsernameLength:
		return validationError("Username too short")
	case n > maxUsernameLength:
		return validationError("Username too long")
	}
	return nil
}

// CheckUsername returns nil if username is free to register.
func (s *Service) CheckUsername(ctx context.Context, username string) error {
	username = normalize(username)
	if err := validateUsername(username); err != nil {
		return err
	}

	_, err := s.store.AudienceUserByName(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case errors.Is(err, ErrNoDocument):
		return nil
	}
	return err
}

// RegisterUsername creates an audience member. Usernames are unique
// regardless of case. deviceID is reused if the client already has one.
func (s *Service) RegisterUsername(ctx context.Context, username, deviceID string) (*AudienceUser, error) {
	username = normalize(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if deviceID == "" {
		deviceID = s.newDeviceID()
	}

	now := s.now()
	u := &AudienceUser{
		ID:           s.newID(),
		Username:     username,
		DeviceID:     deviceID,
		JoinedAt:     now,
		LastActiveAt: now,
		IsActive:     true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.AudienceUserByName(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, ErrNoDocument) {
		return nil, err
	}

	err = s.store.InsertAudienceUser(ctx, u)
	if errors.Is(err, ErrDuplicateKey) {
		// Either the name was taken between the check and the insert, or
		// the device is already registered under another name.
		if _, nerr := s.store.AudienceUserByName(ctx, username); nerr == nil {
			return nil, ErrUsernameTaken
		}
		return nil, newError(ErrConflict, "Device already registered")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RestoreSession reattaches a returning device to its active user.
func (s *Service) RestoreSession(ctx context.Context, deviceID string) (*AudienceUser, error) {
	if deviceID == "" {
		return nil, validationError("No device ID")
	}

	u, err := s.store.AudienceUserByDevice(ctx, deviceID)
	if errors.Is(err, ErrNoDocument) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	u.LastActiveAt = s.now()
	if err := s.store.TouchAudienceUser(ctx, u.Username, u.LastActiveAt); err != nil {
		return nil, err
	}
	return u, nil
}

// ActiveAudience counts active audience members.
func (s *Service) ActiveAudience(ctx context.Context) (int, error) {
	return s.store.CountAudience(ctx, AudienceQuery{ActiveOnly: true})
}

type AudienceSummary struct {
	Username     string    `json:"username"`
	JoinedAt     time.Time `json:"joinedAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	MessageCount int       `json:"messageCount"`
	VoteCount    int       `json:"voteCount"`
}

type AudienceStats struct {
	TotalUsers  int               `json:"totalUsers"`
	RecentUsers []AudienceSummary `json:"recentUsers"`
}

func (s *Service) AudienceStats(ctx context.Context) (*AudienceStats, error) {
	q := AudienceQuery{ActiveOnly: true, Limit: recentAudienceLimit}

	total, err := s.store.CountAudience(ctx, q)
	if err != nil {
		return nil, err
	}
	users, err := s.store.RecentAudience(ctx, q)
	if err != nil {
		return nil, err
	}

	stats := &AudienceStats{
		TotalUsers:  total,
		RecentUsers: make([]AudienceSummary, 0, len(users)),
	}
	for _, u := range users {
		stats.RecentUsers = append(stats.RecentUsers, AudienceSummary{
			Username:     u.Username,
			JoinedAt:     u.JoinedAt,
			LastActiveAt: u.LastActiveAt,
			MessageCount: u.MessageCount,
			VoteCount:    u.VoteCount,
		})
	}
	return stats, nil
}

// DeactivateIdleAudience soft-deletes users inactive for longer than idle.
func (s *Service) DeactivateIdleAudience(ctx context.Context, idle time.Duration) (int, error) {
	if idle <= 0 {
		return 0, validationError("Idle threshold must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.DeactivateAudience(ctx, s.now().Add(-idle))
}

// PurgeInactiveAudience hard-deletes deactivated users inactive for longer
// than idle.
func (s *Service) PurgeInactiveAudience(ctx context.Context, idle time.Duration) (int, error) {
	if idle <= 0 {
		return 0, validationError("Idle threshold must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.PurgeAudience(ctx, s.now().Add(-idle))
}

type LeaderboardEntry struct {
	Username      string    `json:"username"`
	CorrectVotes  int       `json:"correctVotes"`
	TotalVotes    int       `json:"totalVotes"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	JoinedAt      time.Time `json:"joinedAt"`
	Rank          int       `json:"rank"`
	Accuracy      int       `json:"accuracy"`
}

type Leaderboard struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	TotalUsers  int                `json:"totalUsers"`
}

// Leaderboard ranks active users by correct votes, then by fewest total
// votes, then by name. A gameSessionID limits it to that session's voters.
func (s *Service) Leaderboard(ctx context.Context, gameSessionID string, limit int) (*Leaderboard, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	q := AudienceQuery{ActiveOnly: true, GameSessionID: gameSessionID, Limit: limit}

	users, err := s.store.Leaderboard(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountAudience(ctx, q)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{
		Leaderboard: make([]LeaderboardEntry, 0, len(users)),
		TotalUsers:  total,
	}
	for i, u := range users {
		board.Leaderboard = append(board.Leaderboard, LeaderboardEntry{
			Username:      u.Username,
			CorrectVotes:  u.CorrectVotes,
			TotalVotes:    u.TotalVotes,
			CurrentStreak: u.CurrentStreak,
			LongestStreak: u.LongestStreak,
			JoinedAt:      u.JoinedAt,
			Rank:          i + 1,
			Accuracy:      u.Accuracy(),
		})
	}
	return board, nil
}
