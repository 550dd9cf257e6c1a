package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"xenon-assistant/internal/models"
	"xenon-assistant/internal/repository"
)

// AdminService gates the settings panel behind a single shared password.
// Authentication is a flag on the caller's own session.
type AdminService struct {
	sessions     SessionRepository
	passwordHash []byte
}

// NewAdminService hashes password unless a precomputed bcrypt hash is given.
func NewAdminService(sessions SessionRepository, password, passwordHash string) (*AdminService, error) {
	hash := []byte(passwordHash)
	if passwordHash == "" {
		if password == "" {
			return nil, errors.New("admin password is empty")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &AdminService{sessions: sessions, passwordHash: hash}, nil
}

func (s *AdminService) Login(ctx context.Context, sessionID uuid.UUID, password string) error {
	if password == "" {
		return &ValidationError{Fields: map[string]string{"password": "Password is required"}}
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return &UnauthorizedError{Message: "Incorrect password"}
	}
	return s.setAdmin(ctx, sessionID, true)
}

func (s *AdminService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.setAdmin(ctx, sessionID, false)
}

func (s *AdminService) IsAdmin(ctx context.Context, sessionID uuid.UUID) bool {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false
	}
	return sess.Admin
}

func (s *AdminService) setAdmin(ctx context.Context, sessionID uuid.UUID, admin bool) error {
	_, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		sess.Admin = admin
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: "Session not found"}
	}
	return err
}
