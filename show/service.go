package show

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Service validates and applies every change to the show. Mutations are
// serialized: at most one runs at a time, so multi-step updates (a guess
// and the score it earns) never interleave with each other.
type Service struct {
	store Store

	mu sync.Mutex

	now         func() time.Time
	newID       func() string
	newDeviceID func() string
}

func NewService(store Store) *Service {
	return &Service{
		store:       store,
		now:         time.Now,
		newID:       func() string { return primitive.NewObjectID().Hex() },
		newDeviceID: uuid.NewString,
	}
}

// GameState returns the current game state.
func (s *Service) GameState(ctx context.Context) (*GameState, error) {
	return s.store.GameState(ctx)
}

// Comedians returns the full roster.
func (s *Service) Comedians(ctx context.Context) ([]Comedian, error) {
	return s.store.Comedians(ctx)
}

// current loads the game state and the live comedian, if there is one.
// A comedian id that no longer resolves is treated as absent.
func (s *Service) current(ctx context.Context) (*GameState, *Comedian, *Prompt, error) {
	gs, err := s.store.GameState(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if gs.CurrentComedianID == nil {
		return gs, nil, nil, nil
	}

	c, err := s.store.Comedian(ctx, *gs.CurrentComedianID)
	if errors.Is(err, ErrNoDocument) {
		return gs, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}

	var p *Prompt
	if gs.CurrentPromptID != nil {
		p = c.Prompt(*gs.CurrentPromptID)
	}
	return gs, c, p, nil
}

func normalize(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func ptr[T any](v T) *T {
	return &v
}
