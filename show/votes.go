package show

import (
	"context"
	"errors"
	"time"
)

// VoteTally counts the audience's votes on one prompt. The voter lists are
// only filled in on request.
type VoteTally struct {
	PromptID    string   `json:"promptId"`
	Truth       int      `json:"truth"`
	Lie         int      `json:"lie"`
	Total       int      `json:"total"`
	TruthVoters []string `json:"truthVoters,omitempty"`
	LieVoters   []string `json:"lieVoters,omitempty"`
}

func tally(promptID string, votes []Vote, voters bool) *VoteTally {
	t := &VoteTally{PromptID: promptID, Total: len(votes)}
	if voters {
		t.TruthVoters = []string{}
		t.LieVoters = []string{}
	}

	for _, v := range votes {
		switch v.Vote {
		case Truth:
			t.Truth++
			if voters {
				t.TruthVoters = append(t.TruthVoters, v.Username)
			}
		case Lie:
			t.Lie++
			if voters {
				t.LieVoters = append(t.LieVoters, v.Username)
			}
		}
	}
	return t
}

// SubmitVote records one audience member's prediction for a prompt. Each
// user votes at most once per prompt; the store's unique index is what
// guarantees it. The vote keeps a snapshot of the live game so it can be
// scored later.
func (s *Service) SubmitVote(ctx context.Context, promptID, username string, vote Answer) (*VoteTally, error) {
	username = normalize(username)
	switch {
	case promptID == "":
		return nil, validationError("Prompt id is required")
	case username == "":
		return nil, validationError("Username is required")
	case !vote.Valid():
		return nil, validationError("Vote must be truth or lie")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.AudienceUserByName(ctx, username)
	if errors.Is(err, ErrNoDocument) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	gs, c, p, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	v := &Vote{
		ID:            s.newID(),
		PromptID:      promptID,
		Username:      username,
		Vote:          vote,
		Timestamp:     s.now(),
		GameSessionID: gs.ID,
	}
	if c != nil {
		v.ComedianID = c.ID
		if p != nil {
			v.PromptAnswer = ptr(p.Answer)
		}
	}

	err = s.store.InsertVote(ctx, v)
	if errors.Is(err, ErrDuplicateKey) {
		return nil, ErrDuplicateVote
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.AddAudienceStats(ctx, username, AudienceDelta{VoteCount: 1, TotalVotes: 1}, v.Timestamp); err != nil {
		return nil, err
	}
	if err := s.store.SetAudienceSession(ctx, username, gs.ID); err != nil {
		return nil, err
	}

	votes, err := s.store.Votes(ctx, promptID)
	if err != nil {
		return nil, err
	}
	return tally(promptID, votes, false), nil
}

// VoteResults tallies a prompt, optionally listing who voted which way.
func (s *Service) VoteResults(ctx context.Context, promptID string, voters bool) (*VoteTally, error) {
	if promptID == "" {
		return nil, validationError("Prompt id is required")
	}

	votes, err := s.store.Votes(ctx, promptID)
	if err != nil {
		return nil, err
	}
	return tally(promptID, votes, voters), nil
}

// UserVote returns the user's vote on a prompt, or nil if they have not voted.
func (s *Service) UserVote(ctx context.Context, promptID, username string) (*Vote, error) {
	username = normalize(username)
	if promptID == "" || username == "" {
		return nil, validationError("Prompt id and username are required")
	}

	v, err := s.store.Vote(ctx, promptID, username)
	if errors.Is(err, ErrNoDocument) {
		return nil, nil
	}
	return v, err
}

// UpdateVoteAccuracy scores every vote on a prompt against its actual
// answer, updating each voter's correct count and streak. It returns the
// number of votes scored.
func (s *Service) UpdateVoteAccuracy(ctx context.Context, promptID string, actual Answer) (int, error) {
	if promptID == "" {
		return 0, validationError("Prompt id is required")
	}
	if !actual.Valid() {
		return 0, validationError("Answer must be truth or lie")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	votes, err := s.store.Votes(ctx, promptID)
	if err != nil {
		return 0, err
	}

	for _, v := range votes {
		err := s.store.RecordVoteOutcome(ctx, v.Username, v.Vote == actual)
		if err != nil && !errors.Is(err, ErrNoDocument) {
			return 0, err
		}
	}
	return len(votes), nil
}

// ClearPromptVotes deletes a prompt's votes and takes them back out of
// each voter's counters.
func (s *Service) ClearPromptVotes(ctx context.Context, promptID string) error {
	if promptID == "" {
		return validationError("Prompt id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	votes, err := s.store.Votes(ctx, promptID)
	if err != nil {
		return err
	}

	for _, v := range votes {
		err := s.store.AddAudienceStats(ctx, v.Username, AudienceDelta{VoteCount: -1, TotalVotes: -1}, time.Time{})
		if err != nil && !errors.Is(err, ErrNoDocument) {
			return err
		}
	}

	_, err = s.store.DeleteVotes(ctx, promptID)
	return err
}
