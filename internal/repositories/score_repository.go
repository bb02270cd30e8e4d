package repositories

import (
	"context"
	"errors"
	"time"

	"snake/backend/internal/models"
	"snake/backend/internal/ranking"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScoreRepository struct {
	DB *gorm.DB
}

// scoreRow is a score joined with its owner's username.
type scoreRow struct {
	ID        uint
	UserID    uint
	Username  string
	Score     int
	Mode      models.GameMode
	Timestamp time.Time
}

func (r scoreRow) entry() models.LeaderboardEntry {
	return models.LeaderboardEntry{
		ID:        r.ID,
		UserID:    r.UserID,
		Username:  r.Username,
		Score:     r.Score,
		Mode:      r.Mode,
		Timestamp: r.Timestamp.UnixMilli(),
	}
}

func toEntries(rows []scoreRow) []models.LeaderboardEntry {
	return lo.Map(rows, func(row scoreRow, _ int) models.LeaderboardEntry { return row.entry() })
}

// Create inserts score after confirming its owner exists. SQLite does not
// enforce foreign keys unless asked to, so the lookup runs in the same
// transaction as the insert and a constraint failure maps to the same error.
func (r *ScoreRepository) Create(ctx context.Context, score *models.Score) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&models.User{}).Where("id = ?", score.UserID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return ErrUserNotFound
		}
		if err := tx.Omit(clause.Associations).Create(score).Error; err != nil {
			if isForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
}

func (r *ScoreRepository) joined(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("scores").
		Select("scores.id, scores.user_id, users.username, scores.score, scores.mode, scores.timestamp").
		Joins("JOIN users ON users.id = scores.user_id")
}

func (r *ScoreRepository) GetByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error) {
	var rows []scoreRow
	if err := r.joined(ctx).Where("scores.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrScoreNotFound
	}
	entry := rows[0].entry()
	return &entry, nil
}

// GetByUserID returns the user's scores, most recent first.
func (r *ScoreRepository) GetByUserID(ctx context.Context, userID uint) ([]models.LeaderboardEntry, error) {
	rows := []scoreRow{}
	err := r.joined(ctx).
		Where("scores.user_id = ?", userID).
		Order("scores.timestamp DESC").
		Order("scores.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// Leaderboard orders in SQL with the same keys as ranking.Compare and numbers
// the rows it gets back. The first n rows of the full ordering keep their
// positions, so applying LIMIT in the query leaves ranks unchanged.
func (r *ScoreRepository) Leaderboard(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	query := r.joined(ctx)
	if q.Mode != "" {
		query = query.Where("scores.mode = ?", q.Mode)
	}
	query = query.
		Order("scores.score DESC").
		Order("scores.timestamp ASC").
		Order("scores.id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	rows := []scoreRow{}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	entries := toEntries(rows)
	ranking.AssignRanks(entries)
	return entries, nil
}

var errNilDB = errors.New("repositories: nil database handle")
