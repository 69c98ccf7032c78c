// Package services contains server-side business logic. This file implements
// UserService: registration, login and the caller's profile.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/server/auth"
	"github.com/dmitrijs2005/guessgame/internal/server/config"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	issuer       *auth.Issuer
	initialTurns int
	hashCost     int
	dummyOnce    sync.Once
	dummyHash    []byte
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer, cfg *config.Config) *UserService {
	return &UserService{
		db:           db,
		repomanager:  m,
		issuer:       issuer,
		initialTurns: cfg.InitialTurns,
		hashCost:     bcrypt.DefaultCost,
	}
}

// bcrypt rejects longer inputs.
const maxPasswordBytes = 72

// Register creates a USER account with the configured starting turns.
func (s *UserService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, maxPasswordBytes)
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.Exists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if exists {
		return nil, common.ErrorAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(email),
		Role:         common.RoleUser,
		Turns:        s.initialTurns,
	}
	u, err := repo.Create(ctx, user)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the password and returns a signed bearer token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the response time close to a real mismatch
			_ = bcrypt.CompareHashAndPassword(s.fakeHash(), []byte(password))
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := s.issuer.Issue(user.Username, user.Role)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Profile returns the stored account for username.
func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

func (s *UserService) fakeHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.hashCost)
	})
	return s.dummyHash
}
