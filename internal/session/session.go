// Package session holds the operator credential and persists it across restarts.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"arbpanel/internal/logger"
	"arbpanel/internal/models"

	"github.com/sirupsen/logrus"
)

// Fixed storage names of the two credential fields.
const (
	KeyUser   = "u"
	KeySecret = "p"
)

var ErrEmptyCredential = errors.New("session: username and secret are required")

// Storage is the durable key-value backend behind a Store.
type Storage interface {
	Load(ctx context.Context) (models.Credential, error)
	Save(ctx context.Context, cred models.Credential) error
	Clear(ctx context.Context) error
}

// Store is the single writer of the persisted credential. Readers take copies.
type Store struct {
	storage Storage
	log     *logger.Logger

	mu   sync.RWMutex
	cred models.Credential
}

// New reads any persisted credential. A half-present credential is treated as absent.
func New(ctx context.Context, storage Storage, log *logger.Logger) (*Store, error) {
	s := &Store{storage: storage, log: log}

	cred, err := storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load credential: %w", err)
	}
	if cred.Valid() {
		s.cred = cred
		s.logEntry().WithField("user", cred.Username).Debug("Restored stored credential.")
	}
	return s, nil
}

func (s *Store) SetCredential(ctx context.Context, user, secret string) error {
	cred := models.Credential{Username: user, Secret: secret}
	if !cred.Valid() {
		return ErrEmptyCredential
	}
	if err := s.storage.Save(ctx, cred); err != nil {
		return fmt.Errorf("session: save credential: %w", err)
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	s.logEntry().WithField("user", user).Info("Session started.")
	return nil
}

// Clear marks the session inactive even when the backend fails to erase.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	wasActive := s.cred.Valid()
	s.cred = models.Credential{}
	s.mu.Unlock()

	if wasActive {
		s.logEntry().Info("Session cleared.")
	}
	if err := s.storage.Clear(ctx); err != nil {
		return fmt.Errorf("session: clear credential: %w", err)
	}
	return nil
}

func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Valid()
}

func (s *Store) Credential() (models.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.cred.Valid()
}

// CurrentAuthValue returns the Authorization header value, or false when no credential is held.
func (s *Store) CurrentAuthValue() (string, bool) {
	cred, ok := s.Credential()
	if !ok {
		return "", false
	}
	return AuthValue(cred), true
}

// Token is the bare encoded credential used where headers cannot be sent (stream query string).
func (s *Store) Token() (string, bool) {
	cred, ok := s.Credential()
	if !ok {
		return "", false
	}
	return Token(cred), true
}

func Token(cred models.Credential) string {
	return base64.StdEncoding.EncodeToString([]byte(cred.Username + ":" + cred.Secret))
}

func AuthValue(cred models.Credential) string {
	return "Basic " + Token(cred)
}

func (s *Store) logEntry() *logrus.Entry {
	return s.log.WithComponent("session")
}
