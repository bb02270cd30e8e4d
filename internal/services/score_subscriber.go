package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"snake/backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GameFinishedChannel is the Redis pub/sub channel game clients publish results to.
const GameFinishedChannel = "game_finished"

// GameFinishedEvent is the payload published on GameFinishedChannel.
type GameFinishedEvent struct {
	UserID  uint            `json:"userId"`
	Score   *int            `json:"score"`
	Mode    models.GameMode `json:"mode"`
	EndedAt string          `json:"endedAt,omitempty"`
}

var errMissingUserID = errors.New("userId is required")

// scoreRecorder is the part of LeaderboardService the subscriber needs.
type scoreRecorder interface {
	RecordGameResult(ctx context.Context, userID uint, sub models.ScoreSubmission, endedAt time.Time) (*models.LeaderboardEntry, error)
}

// ScoreSubscriber turns game_finished events into stored scores.
type ScoreSubscriber struct {
	rdb        *redis.Client
	scores     scoreRecorder
	logger     *zap.Logger
	instanceID string
}

func NewScoreSubscriber(rdb *redis.Client, scores scoreRecorder, logger *zap.Logger) *ScoreSubscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreSubscriber{
		rdb:        rdb,
		scores:     scores,
		logger:     logger,
		instanceID: uuid.New().String()[:8], // short id to tell replicas apart in logs
	}
}

// Subscribe blocks until ctx is cancelled or the subscription channel closes.
func (s *ScoreSubscriber) Subscribe(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	sub := s.rdb.Subscribe(ctx, GameFinishedChannel)
	defer sub.Close()
	ch := sub.Channel()

	s.logger.Info("score subscriber listening",
		zap.String("channel", GameFinishedChannel),
		zap.String("instance", s.instanceID),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

func (s *ScoreSubscriber) handle(ctx context.Context, payload string) {
	event, endedAt, err := decodeGameFinished(payload)
	if err != nil {
		s.logger.Warn("dropping game_finished event", zap.String("instance", s.instanceID), zap.Error(err))
		return
	}

	sub := models.ScoreSubmission{Score: event.Score, Mode: event.Mode}
	entry, err := s.scores.RecordGameResult(ctx, event.UserID, sub, endedAt)
	if err != nil {
		s.logger.Warn("failed to record game result",
			zap.String("instance", s.instanceID),
			zap.Uint("userId", event.UserID),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("game result recorded", zap.String("instance", s.instanceID), zap.Uint("scoreId", entry.ID))
}

func decodeGameFinished(payload string) (GameFinishedEvent, time.Time, error) {
	var event GameFinishedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, time.Time{}, fmt.Errorf("decode payload: %w", err)
	}
	if event.UserID == 0 {
		return event, time.Time{}, errMissingUserID
	}
	if event.EndedAt == "" {
		return event, time.Time{}, nil
	}
	endedAt, err := time.Parse(time.RFC3339, event.EndedAt)
	if err != nil {
		return event, time.Time{}, fmt.Errorf("parse endedAt: %w", err)
	}
	return event, endedAt, nil
}
