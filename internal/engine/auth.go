package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arbpanel/internal/logger"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"

	"github.com/sirupsen/logrus"
)

// CredentialStore is the part of the session store the login flow drives.
type CredentialStore interface {
	Credential() (models.Credential, bool)
	SetCredential(ctx context.Context, user, secret string) error
	Clear(ctx context.Context) error
}

type Authenticator struct {
	api     panel.API
	session CredentialStore
	log     *logger.Logger

	attempts     int
	retryBackoff time.Duration
}

func NewAuthenticator(api panel.API, session CredentialStore, log *logger.Logger) *Authenticator {
	return &Authenticator{
		api:          api,
		session:      session,
		log:          log,
		attempts:     3,
		retryBackoff: time.Second,
	}
}

// Login checks a candidate credential against the server and stores it only when accepted.
// A rejected credential clears the store. A network failure leaves the store as it was.
func (a *Authenticator) Login(ctx context.Context, user, secret string) error {
	cred := models.Credential{Username: user, Secret: secret}
	if !cred.Valid() {
		return panel.ErrInvalidCredentials
	}

	err := a.api.AuthCheck(ctx, cred)
	var transportErr *panel.TransportError
	switch {
	case err == nil:
		if err := a.session.SetCredential(ctx, user, secret); err != nil {
			return fmt.Errorf("store credential: %w", err)
		}
		a.logEntry().WithField("user", user).Info("Logged in.")
		return nil
	case errors.As(err, &transportErr):
		a.logEntry().WithError(err).Warn("Auth check unreachable.")
		return err
	default:
		if clearErr := a.session.Clear(ctx); clearErr != nil {
			a.logEntry().WithError(clearErr).Warn("Failed to clear session.")
		}
		a.logEntry().WithError(err).Warn("Credential rejected.")
		return fmt.Errorf("%w: %v", panel.ErrInvalidCredentials, err)
	}
}

// Verify re-checks the stored credential at startup. Unreachable servers are retried a few
// times; any failure that remains clears the session.
func (a *Authenticator) Verify(ctx context.Context) (bool, error) {
	cred, ok := a.session.Credential()
	if !ok {
		return false, nil
	}

	err := a.withRetry(ctx, func() error { return a.api.AuthCheck(ctx, cred) })
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, err
	}
	if clearErr := a.session.Clear(ctx); clearErr != nil {
		a.logEntry().WithError(clearErr).Warn("Failed to clear session.")
	}
	return false, err
}

func (a *Authenticator) Logout(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		return err
	}
	a.logEntry().Info("Logged out.")
	return nil
}

func (a *Authenticator) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	wait := a.retryBackoff
	for i := 0; i < a.attempts; i++ {
		err := fn()
		var transportErr *panel.TransportError
		if err == nil || !errors.As(err, &transportErr) {
			return err
		}
		lastErr = err
		if i == a.attempts-1 {
			break
		}
		a.logEntry().WithError(err).WithField("attempt", i+1).Info("Auth check failed, retrying.")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return lastErr
}

func (a *Authenticator) logEntry() *logrus.Entry {
	return componentEntry(a.log, "auth")
}
