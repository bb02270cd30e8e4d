// Package seed loads demo users and scores from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"snake/backend/internal/models"
	"snake/backend/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type File struct {
	Users []User `yaml:"users"`
}

type User struct {
	Username string  `yaml:"username"`
	Email    string  `yaml:"email"`
	Password string  `yaml:"password"`
	Scores   []Score `yaml:"scores"`
}

type Score struct {
	Score int             `yaml:"score"`
	Mode  models.GameMode `yaml:"mode"`
}

// Result summarises one seeding run.
type Result struct {
	UsersCreated  int
	UsersSkipped  int
	ScoresCreated int
}

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Seeder writes seed data through a Store.
type Seeder struct {
	Store  repositories.Store
	Logger *zap.Logger
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

// Apply creates every user that does not exist yet together with their
// scores. Users whose username or email is taken are skipped whole, so a
// file can be applied repeatedly. Per-user failures are collected and the
// run continues with the next user.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	var res Result
	var errs []error
	for _, u := range f.Users {
		created, err := s.applyUser(ctx, u, cost)
		switch {
		case errors.Is(err, repositories.ErrConflict):
			res.UsersSkipped++
			logger.Debug("seed user exists, skipping", zap.String("username", u.Username))
			continue
		case err != nil:
			errs = append(errs, fmt.Errorf("seed user %q: %w", u.Username, err))
			continue
		}
		res.UsersCreated++
		res.ScoresCreated += created
	}

	logger.Info("seed applied",
		zap.Int("usersCreated", res.UsersCreated),
		zap.Int("usersSkipped", res.UsersSkipped),
		zap.Int("scoresCreated", res.ScoresCreated),
	)
	return res, errors.Join(errs...)
}

func (s *Seeder) applyUser(ctx context.Context, u User, cost int) (int, error) {
	req := models.SignupRequest{Username: u.Username, Email: u.Email, Password: u.Password}
	if err := req.Validate(); err != nil {
		return 0, err
	}
	for _, sc := range u.Scores {
		sub := models.ScoreSubmission{Score: &sc.Score, Mode: sc.Mode}
		if err := sub.Validate(); err != nil {
			return 0, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	userID, err := s.Store.CreateUser(ctx, req.Username, req.Email, string(hash))
	if err != nil {
		return 0, err
	}

	created := 0
	for _, sc := range u.Scores {
		if _, err := s.Store.CreateScore(ctx, userID, sc.Score, sc.Mode, time.Time{}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
