package repositories

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"snake/backend/internal/models"
	"snake/backend/internal/ranking"
)

// MemoryStore keeps users and scores in process-local maps. A single RWMutex
// guards all of them; uniqueness checks and inserts happen under the write lock.
type MemoryStore struct {
	mu sync.RWMutex

	users       map[uint]*models.User
	userByName  map[string]uint
	userByEmail map[string]uint
	scores      map[uint]*models.Score
	scoreOrder  []uint
	nextUserID  uint
	nextScoreID uint
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[uint]*models.User),
		userByName:  make(map[string]uint),
		userByEmail: make(map[string]uint),
		scores:      make(map[uint]*models.Score),
		now:         time.Now,
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, username, email, passwordHash string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userByName[username]; ok {
		return 0, ErrUsernameTaken
	}
	if _, ok := s.userByEmail[email]; ok {
		return 0, ErrEmailTaken
	}

	s.nextUserID++
	user := &models.User{
		ID:           s.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	s.users[user.ID] = user
	s.userByName[username] = user.ID
	s.userByEmail[email] = user.ID
	return user.ID, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userCopy(id)
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.userCopy(id)
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByName[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.userCopy(id)
}

func (s *MemoryStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.userByName[username]
	return ok, nil
}

func (s *MemoryStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.userByEmail[email]
	return ok, nil
}

func (s *MemoryStore) CreateScore(_ context.Context, userID uint, score int, mode models.GameMode, timestamp time.Time) (uint, error) {
	if err := validateScore(score, mode); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return 0, ErrUserNotFound
	}
	s.nextScoreID++
	row := &models.Score{
		ID:        s.nextScoreID,
		UserID:    userID,
		Score:     score,
		Mode:      mode,
		Timestamp: normalizeTimestamp(timestamp, s.now),
	}
	s.scores[row.ID] = row
	s.scoreOrder = append(s.scoreOrder, row.ID)
	return row.ID, nil
}

func (s *MemoryStore) GetScoreByID(_ context.Context, id uint) (*models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.scores[id]
	if !ok {
		return nil, ErrScoreNotFound
	}
	entry := s.entry(row)
	return &entry, nil
}

// GetUserScores returns the user's scores, most recent first.
func (s *MemoryStore) GetUserScores(_ context.Context, userID uint) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []models.LeaderboardEntry{}
	for _, id := range s.scoreOrder {
		if row := s.scores[id]; row.UserID == userID {
			entries = append(entries, s.entry(row))
		}
	}
	slices.SortStableFunc(entries, func(a, b models.LeaderboardEntry) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return entries, nil
}

func (s *MemoryStore) GetScores(_ context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := make([]models.LeaderboardEntry, 0, len(s.scoreOrder))
	for _, id := range s.scoreOrder {
		entries = append(entries, s.entry(s.scores[id]))
	}
	s.mu.RUnlock()

	return ranking.Rank(entries, q), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// userCopy must be called with s.mu held.
func (s *MemoryStore) userCopy(id uint) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// entry must be called with s.mu held.
func (s *MemoryStore) entry(row *models.Score) models.LeaderboardEntry {
	username := ""
	if user, ok := s.users[row.UserID]; ok {
		username = user.Username
	}
	return models.NewLeaderboardEntry(row, username)
}
