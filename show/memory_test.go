package show

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if err := m.InsertAudienceUser(ctx, &AudienceUser{ID: "1", Username: "alice", DeviceID: "d1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tests := []struct {
		name string
		user AudienceUser
	}{
		{"same username", AudienceUser{ID: "2", Username: "alice", DeviceID: "d2"}},
		{"same device", AudienceUser{ID: "3", Username: "bob", DeviceID: "d1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.InsertAudienceUser(ctx, &tt.user); !errors.Is(err, ErrDuplicateKey) {
				t.Errorf("error = %v, want %v", err, ErrDuplicateKey)
			}
		})
	}

	if err := m.InsertVote(ctx, &Vote{ID: "v1", PromptID: "p1", Username: "alice", Vote: Truth}); err != nil {
		t.Fatalf("insert vote: %v", err)
	}
	if err := m.InsertVote(ctx, &Vote{ID: "v2", PromptID: "p1", Username: "alice", Vote: Lie}); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate vote: error = %v, want %v", err, ErrDuplicateKey)
	}
	if err := m.InsertVote(ctx, &Vote{ID: "v3", PromptID: "p2", Username: "alice", Vote: Lie}); err != nil {
		t.Errorf("vote on another prompt: %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if err := m.InsertComedian(ctx, &Comedian{ID: "c1", Name: "Ada", Prompts: []Prompt{{ID: "p1", Text: "bear"}}}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	c, err := m.Comedian(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	c.Name = "changed"
	c.Prompts[0].Text = "changed"

	gs, err := m.GameState(ctx)
	if err != nil {
		t.Fatalf("game state: %v", err)
	}
	gs.Teams.TeamA.Score = 99

	again, _ := m.Comedian(ctx, "c1")
	if again.Name != "Ada" || again.Prompts[0].Text != "bear" {
		t.Errorf("caller mutation leaked into the store: %+v", again)
	}
	if gs2, _ := m.GameState(ctx); gs2.Teams.TeamA.Score != 0 || gs2.ID != gs.ID {
		t.Errorf("game state = %+v", gs2)
	}
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemoryStore()
	if _, err := m.GameState(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("GameState() error = %v, want %v", err, context.Canceled)
	}
	if err := m.InsertVote(ctx, &Vote{PromptID: "p1", Username: "alice"}); !errors.Is(err, context.Canceled) {
		t.Errorf("InsertVote() error = %v, want %v", err, context.Canceled)
	}
}
