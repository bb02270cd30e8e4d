package repositories

import (
	"context"
	"time"

	"snake/backend/internal/models"

	"gorm.io/gorm"
)

// SQLStore is the relational backend. Every call runs in its own gorm session;
// nothing is shared between calls beyond the connection pool.
type SQLStore struct {
	db     *gorm.DB
	Users  *UserRepository
	Scores *ScoreRepository
	now    func() time.Time
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errNilDB
	}
	return &SQLStore{
		db:     db,
		Users:  &UserRepository{DB: db},
		Scores: &ScoreRepository{DB: db},
		now:    time.Now,
	}, nil
}

// Models lists the tables owned by the SQL backend, in migration order.
func Models() []any {
	return []any{&models.User{}, &models.Score{}}
}

// Migrate creates or updates the users and scores tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(Models()...)
}

func (s *SQLStore) CreateUser(ctx context.Context, username, email, passwordHash string) (uint, error) {
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.Users.GetUserByID(ctx, id)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.Users.GetUserByEmail(ctx, email)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.Users.GetUserByUsername(ctx, username)
}

func (s *SQLStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.Users.UsernameExists(ctx, username)
}

func (s *SQLStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.Users.EmailExists(ctx, email)
}

func (s *SQLStore) CreateScore(ctx context.Context, userID uint, score int, mode models.GameMode, timestamp time.Time) (uint, error) {
	if err := validateScore(score, mode); err != nil {
		return 0, err
	}
	row := &models.Score{
		UserID:    userID,
		Score:     score,
		Mode:      mode,
		Timestamp: normalizeTimestamp(timestamp, s.now),
	}
	if err := s.Scores.Create(ctx, row); err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *SQLStore) GetScoreByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error) {
	return s.Scores.GetByID(ctx, id)
}

func (s *SQLStore) GetUserScores(ctx context.Context, userID uint) ([]models.LeaderboardEntry, error) {
	return s.Scores.GetByUserID(ctx, userID)
}

func (s *SQLStore) GetScores(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	return s.Scores.Leaderboard(ctx, q)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
