/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package mongostore keeps the show in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Seednode/liarliar/show"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	gameStates    = "gamestates"
	comedians     = "comedians"
	audienceUsers = "audienceusers"
	votes         = "votes"
	chatMessages  = "chatmessages"
)

// gameStateID is the _id of the one game state document.
const gameStateID = "gamestate"

var singleton = bson.D{{Key: "_id", Value: gameStateID}}

// Instagram handles match regardless of case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type Config struct {
	Database string

	// Transactions wraps multi-document writes (a guess and its score, a
	// reset) in a transaction. The server must be a replica set.
	Transactions bool
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	txns   bool
}

// Open connects to uri, creates the indexes the show relies on and makes
// sure the game state document exists.
func Open(ctx context.Context, uri string, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(cfg.Database),
		txns:   cfg.Transactions,
	}

	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	if _, err := s.GameState(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) createIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		audienceUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "deviceId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "lastActiveAt", Value: -1}}},
		},
		votes: {
			{Keys: bson.D{{Key: "promptId", Value: 1}, {Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		chatMessages: {
			{Keys: bson.D{{Key: "gameSessionId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		comedians: {
			{Keys: bson.D{{Key: "instagram", Value: 1}}, Options: options.Index().SetCollation(caseInsensitive)},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) c(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// translate maps driver errors onto the errors show.Store promises.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return show.ErrNoDocument
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", show.ErrDuplicateKey, err)
	}
	return err
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return show.ErrNoDocument
	}
	return nil
}

// txn runs fn in a transaction when they are enabled, and directly
// otherwise.
func (s *Store) txn(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.txns {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// GameState returns the singleton game state, creating it on first use. It
// always lives under gameStateID, so concurrent first calls converge on one
// document.
func (s *Store) GameState(ctx context.Context) (*show.GameState, error) {
	fresh := show.NewGameState(gameStateID)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var gs show.GameState
	for attempt := 0; ; attempt++ {
		err := s.c(gameStates).FindOneAndUpdate(ctx, singleton, bson.D{{Key: "$setOnInsert", Value: fresh}}, opts).Decode(&gs)
		if mongo.IsDuplicateKeyError(err) && attempt == 0 {
			// Lost the insert race; the document exists now.
			continue
		}
		if err != nil {
			return nil, translate(err)
		}
		return &gs, nil
	}
}

func (s *Store) PatchGameState(ctx context.Context, patch show.GameStatePatch) error {
	set := bson.D{}
	add := func(key string, value any) {
		set = append(set, bson.E{Key: key, Value: value})
	}

	if patch.Mode != nil {
		add("mode", *patch.Mode)
	}
	if patch.CustomText != nil {
		add("customText", *patch.CustomText)
	}
	if patch.AnswerRevealed != nil {
		add("answerRevealed", *patch.AnswerRevealed)
	}
	if patch.TeamAName != nil {
		add("teams.teamA.name", *patch.TeamAName)
	}
	if patch.TeamAScore != nil {
		add("teams.teamA.score", *patch.TeamAScore)
	}
	if patch.TeamBName != nil {
		add("teams.teamB.name", *patch.TeamBName)
	}
	if patch.TeamBScore != nil {
		add("teams.teamB.score", *patch.TeamBScore)
	}
	if len(set) == 0 {
		return nil
	}

	return matched(s.c(gameStates).UpdateOne(ctx, singleton, bson.D{{Key: "$set", Value: set}}))
}

func (s *Store) SetSelection(ctx context.Context, comedianID, promptID *string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "currentComedianId", Value: comedianID},
		{Key: "currentPromptId", Value: promptID},
	}}}

	return matched(s.c(gameStates).UpdateOne(ctx, singleton, update))
}

func (s *Store) ResetGame(ctx context.Context) error {
	return s.txn(ctx, func(ctx context.Context) error {
		update := bson.D{{Key: "$set", Value: bson.D{
			{Key: "currentComedianId", Value: nil},
			{Key: "currentPromptId", Value: nil},
			{Key: "teams.teamA.score", Value: 0},
			{Key: "teams.teamB.score", Value: 0},
		}}}
		if err := matched(s.c(gameStates).UpdateOne(ctx, singleton, update)); err != nil {
			return err
		}

		unset := bson.D{{Key: "$unset", Value: bson.D{{Key: "prompts.$[].guess", Value: ""}}}}
		_, err := s.c(comedians).UpdateMany(ctx, bson.D{}, unset)
		return err
	})
}

func (s *Store) Comedians(ctx context.Context) ([]show.Comedian, error) {
	cur, err := s.c(comedians).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	out := []show.Comedian{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Prompts == nil {
			out[i].Prompts = []show.Prompt{}
		}
	}
	return out, nil
}

func (s *Store) findComedian(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*show.Comedian, error) {
	var c show.Comedian
	if err := s.c(comedians).FindOne(ctx, filter, opts...).Decode(&c); err != nil {
		return nil, translate(err)
	}
	if c.Prompts == nil {
		c.Prompts = []show.Prompt{}
	}
	return &c, nil
}

func (s *Store) Comedian(ctx context.Context, id string) (*show.Comedian, error) {
	return s.findComedian(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ComedianByInstagram(ctx context.Context, instagram string) (*show.Comedian, error) {
	return s.findComedian(ctx, bson.D{{Key: "instagram", Value: instagram}}, options.FindOne().SetCollation(caseInsensitive))
}

func (s *Store) InsertComedian(ctx context.Context, c *show.Comedian) error {
	doc := c.Clone()
	if doc.Prompts == nil {
		doc.Prompts = []show.Prompt{}
	}

	_, err := s.c(comedians).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) PatchComedian(ctx context.Context, id string, patch show.ComedianPatch) error {
	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Instagram != nil {
		set = append(set, bson.E{Key: "instagram", Value: *patch.Instagram})
	}
	if patch.Password != nil {
		set = append(set, bson.E{Key: "password", Value: *patch.Password})
	}
	if patch.Team != nil {
		set = append(set, bson.E{Key: "team", Value: *patch.Team})
	}

	if len(set) == 0 {
		_, err := s.Comedian(ctx, id)
		return err
	}

	return matched(s.c(comedians).UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}))
}

func (s *Store) DeleteComedian(ctx context.Context, id string) error {
	res, err := s.c(comedians).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return show.ErrNoDocument
	}
	return nil
}

func (s *Store) AppendPrompt(ctx context.Context, comedianID string, p show.Prompt) error {
	p.Guess = nil
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "prompts", Value: p}}}}

	return matched(s.c(comedians).UpdateOne(ctx, bson.D{{Key: "_id", Value: comedianID}}, update))
}

func (s *Store) ReplacePrompt(ctx context.Context, comedianID string, index int, text string, answer show.Answer) error {
	if index < 0 {
		return show.ErrNoDocument
	}
	at := "prompts." + strconv.Itoa(index)

	filter := bson.D{
		{Key: "_id", Value: comedianID},
		{Key: at, Value: bson.D{{Key: "$exists", Value: true}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: at + ".text", Value: text},
		{Key: at + ".answer", Value: answer},
	}}}

	return matched(s.c(comedians).UpdateOne(ctx, filter, update))
}

// RemovePrompt resolves index to the prompt's id and pulls it by id, so a
// concurrent change to the sequence can't remove the wrong prompt.
func (s *Store) RemovePrompt(ctx context.Context, comedianID string, index int) (show.Prompt, error) {
	c, err := s.Comedian(ctx, comedianID)
	if err != nil {
		return show.Prompt{}, err
	}
	if index < 0 || index >= len(c.Prompts) {
		return show.Prompt{}, show.ErrNoDocument
	}
	removed := c.Prompts[index]

	filter := bson.D{
		{Key: "_id", Value: comedianID},
		{Key: "prompts._id", Value: removed.ID},
	}
	update := bson.D{{Key: "$pull", Value: bson.D{
		{Key: "prompts", Value: bson.D{{Key: "_id", Value: removed.ID}}},
	}}}

	if err := matched(s.c(comedians).UpdateOne(ctx, filter, update)); err != nil {
		return show.Prompt{}, err
	}
	return removed, nil
}

func (s *Store) ApplyGuess(ctx context.Context, u show.GuessUpdate) error {
	return s.txn(ctx, func(ctx context.Context) error {
		filter := bson.D{
			{Key: "_id", Value: u.ComedianID},
			{Key: "prompts._id", Value: u.PromptID},
		}

		var update bson.D
		if u.Guess != nil {
			update = bson.D{{Key: "$set", Value: bson.D{{Key: "prompts.$.guess", Value: *u.Guess}}}}
		} else {
			update = bson.D{{Key: "$unset", Value: bson.D{{Key: "prompts.$.guess", Value: ""}}}}
		}
		if err := matched(s.c(comedians).UpdateOne(ctx, filter, update)); err != nil {
			return err
		}

		if u.ScoreTeam != show.TeamA && u.ScoreTeam != show.TeamB {
			return nil
		}
		score := bson.D{{Key: "$set", Value: bson.D{
			{Key: "teams." + string(u.ScoreTeam) + ".score", Value: u.Score},
		}}}
		return matched(s.c(gameStates).UpdateOne(ctx, singleton, score))
	})
}

func (s *Store) InsertAudienceUser(ctx context.Context, u *show.AudienceUser) error {
	_, err := s.c(audienceUsers).InsertOne(ctx, u)
	return translate(err)
}

func (s *Store) findAudienceUser(ctx context.Context, filter bson.D) (*show.AudienceUser, error) {
	var u show.AudienceUser
	if err := s.c(audienceUsers).FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) AudienceUserByName(ctx context.Context, username string) (*show.AudienceUser, error) {
	return s.findAudienceUser(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *Store) AudienceUserByDevice(ctx context.Context, deviceID string) (*show.AudienceUser, error) {
	return s.findAudienceUser(ctx, bson.D{
		{Key: "deviceId", Value: deviceID},
		{Key: "isActive", Value: true},
	})
}

func (s *Store) updateAudienceUser(ctx context.Context, username string, update any) error {
	return matched(s.c(audienceUsers).UpdateOne(ctx, bson.D{{Key: "username", Value: username}}, update))
}

func (s *Store) TouchAudienceUser(ctx context.Context, username string, at time.Time) error {
	return s.updateAudienceUser(ctx, username, bson.D{{Key: "$set", Value: bson.D{{Key: "lastActiveAt", Value: at}}}})
}

func (s *Store) AddAudienceStats(ctx context.Context, username string, d show.AudienceDelta, at time.Time) error {
	update := bson.D{{Key: "$inc", Value: bson.D{
		{Key: "messageCount", Value: d.MessageCount},
		{Key: "voteCount", Value: d.VoteCount},
		{Key: "totalVotes", Value: d.TotalVotes},
	}}}
	if !at.IsZero() {
		update = append(update, bson.E{Key: "$set", Value: bson.D{{Key: "lastActiveAt", Value: at}}})
	}

	return s.updateAudienceUser(ctx, username, update)
}

func (s *Store) SetAudienceSession(ctx context.Context, username, gameSessionID string) error {
	return s.updateAudienceUser(ctx, username, bson.D{{Key: "$set", Value: bson.D{{Key: "currentGameSessionId", Value: gameSessionID}}}})
}

// RecordVoteOutcome updates the counters in one pipeline update so the
// longest streak is computed from the incremented current streak.
func (s *Store) RecordVoteOutcome(ctx context.Context, username string, correct bool) error {
	if !correct {
		return s.updateAudienceUser(ctx, username, bson.D{{Key: "$set", Value: bson.D{{Key: "currentStreak", Value: 0}}}})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "correctVotes", Value: bson.D{{Key: "$add", Value: bson.A{"$correctVotes", 1}}}},
			{Key: "currentStreak", Value: bson.D{{Key: "$add", Value: bson.A{"$currentStreak", 1}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "longestStreak", Value: bson.D{{Key: "$max", Value: bson.A{"$longestStreak", "$currentStreak"}}}},
		}}},
	}
	return s.updateAudienceUser(ctx, username, pipeline)
}

func audienceFilter(q show.AudienceQuery) bson.D {
	filter := bson.D{}
	if q.ActiveOnly {
		filter = append(filter, bson.E{Key: "isActive", Value: true})
	}
	if q.GameSessionID != "" {
		filter = append(filter, bson.E{Key: "currentGameSessionId", Value: q.GameSessionID})
	}
	return filter
}

func (s *Store) CountAudience(ctx context.Context, q show.AudienceQuery) (int, error) {
	n, err := s.c(audienceUsers).CountDocuments(ctx, audienceFilter(q))
	return int(n), err
}

func (s *Store) findAudience(ctx context.Context, q show.AudienceQuery, sort bson.D) ([]show.AudienceUser, error) {
	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.c(audienceUsers).Find(ctx, audienceFilter(q), opts)
	if err != nil {
		return nil, err
	}

	out := []show.AudienceUser{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) RecentAudience(ctx context.Context, q show.AudienceQuery) ([]show.AudienceUser, error) {
	return s.findAudience(ctx, q, bson.D{{Key: "lastActiveAt", Value: -1}})
}

func (s *Store) Leaderboard(ctx context.Context, q show.AudienceQuery) ([]show.AudienceUser, error) {
	return s.findAudience(ctx, q, bson.D{
		{Key: "correctVotes", Value: -1},
		{Key: "totalVotes", Value: 1},
		{Key: "username", Value: 1},
	})
}

func (s *Store) DeactivateAudience(ctx context.Context, idleSince time.Time) (int, error) {
	filter := bson.D{
		{Key: "isActive", Value: true},
		{Key: "lastActiveAt", Value: bson.D{{Key: "$lt", Value: idleSince}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "isActive", Value: false}}}}

	res, err := s.c(audienceUsers).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func (s *Store) PurgeAudience(ctx context.Context, idleSince time.Time) (int, error) {
	filter := bson.D{
		{Key: "isActive", Value: false},
		{Key: "lastActiveAt", Value: bson.D{{Key: "$lt", Value: idleSince}}},
	}

	res, err := s.c(audienceUsers).DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (s *Store) InsertVote(ctx context.Context, v *show.Vote) error {
	_, err := s.c(votes).InsertOne(ctx, v)
	return translate(err)
}

func (s *Store) Vote(ctx context.Context, promptID, username string) (*show.Vote, error) {
	var v show.Vote
	err := s.c(votes).FindOne(ctx, bson.D{
		{Key: "promptId", Value: promptID},
		{Key: "username", Value: username},
	}).Decode(&v)
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *Store) Votes(ctx context.Context, promptID string) ([]show.Vote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c(votes).Find(ctx, bson.D{{Key: "promptId", Value: promptID}}, opts)
	if err != nil {
		return nil, err
	}

	var out []show.Vote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteVotes(ctx context.Context, promptID string) (int, error) {
	res, err := s.c(votes).DeleteMany(ctx, bson.D{{Key: "promptId", Value: promptID}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (s *Store) InsertChatMessage(ctx context.Context, msg *show.ChatMessage) error {
	_, err := s.c(chatMessages).InsertOne(ctx, msg)
	return translate(err)
}

func chatFilter(gameSessionID string) bson.D {
	if gameSessionID == "" {
		return bson.D{}
	}
	return bson.D{{Key: "gameSessionId", Value: gameSessionID}}
}

func (s *Store) ChatMessages(ctx context.Context, q show.ChatQuery) ([]show.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.c(chatMessages).Find(ctx, chatFilter(q.GameSessionID), opts)
	if err != nil {
		return nil, err
	}

	var out []show.ChatMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteChatMessages(ctx context.Context, gameSessionID string) (int, error) {
	res, err := s.c(chatMessages).DeleteMany(ctx, chatFilter(gameSessionID))
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

var _ show.Store = (*Store)(nil)
