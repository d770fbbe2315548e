package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"arbpanel/internal/logger"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"
	"arbpanel/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, cred models.Credential) (*session.Store, *session.MemoryStorage) {
	t.Helper()
	storage := &session.MemoryStorage{}
	require.NoError(t, storage.Save(context.Background(), cred))
	store, err := session.New(context.Background(), storage, logger.Discard())
	require.NoError(t, err)
	return store, storage
}

func fastAuthenticator(api panel.API, store CredentialStore) *Authenticator {
	a := NewAuthenticator(api, store, logger.Discard())
	a.retryBackoff = time.Millisecond
	return a
}

func TestLoginStoresAcceptedCredential(t *testing.T) {
	cred := models.Credential{Username: "admin", Secret: "changeme"}
	api := &APIMock{}
	api.On("AuthCheck", cred).Return(nil).Once()
	store, storage := newStore(t, models.Credential{})

	require.NoError(t, fastAuthenticator(api, store).Login(context.Background(), "admin", "changeme"))

	assert.True(t, store.Active())
	stored, err := storage.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cred, stored)
}

func TestLoginRejectedClearsSession(t *testing.T) {
	old := models.Credential{Username: "old", Secret: "pw"}
	for name, rejection := range map[string]error{
		"unauthorized": fmt.Errorf("GET %s: %w", panel.PathAuthCheck, panel.ErrUnauthorized),
		"status":       &panel.StatusError{Method: "GET", Path: panel.PathAuthCheck, Code: 403},
	} {
		t.Run(name, func(t *testing.T) {
			api := &APIMock{}
			api.On("AuthCheck", models.Credential{Username: "admin", Secret: "wrong"}).Return(rejection).Once()
			store, storage := newStore(t, old)

			err := fastAuthenticator(api, store).Login(context.Background(), "admin", "wrong")
			assert.ErrorIs(t, err, panel.ErrInvalidCredentials)
			assert.False(t, store.Active())
			stored, _ := storage.Load(context.Background())
			assert.False(t, stored.Valid())
		})
	}
}

func TestLoginNetworkFailureLeavesStorage(t *testing.T) {
	old := models.Credential{Username: "old", Secret: "pw"}
	netErr := &panel.TransportError{Method: "GET", Path: panel.PathAuthCheck, Err: errors.New("dial tcp: refused")}
	api := &APIMock{}
	api.On("AuthCheck", models.Credential{Username: "admin", Secret: "pw"}).Return(netErr).Once()
	store, _ := newStore(t, old)

	err := fastAuthenticator(api, store).Login(context.Background(), "admin", "pw")
	assert.ErrorIs(t, err, netErr)
	assert.NotErrorIs(t, err, panel.ErrInvalidCredentials)

	cred, ok := store.Credential()
	require.True(t, ok)
	assert.Equal(t, old, cred)
}

func TestLoginRequiresBothFields(t *testing.T) {
	api := &APIMock{}
	store, _ := newStore(t, models.Credential{})

	assert.ErrorIs(t, fastAuthenticator(api, store).Login(context.Background(), "admin", ""), panel.ErrInvalidCredentials)
	api.AssertNotCalled(t, "AuthCheck", models.Credential{Username: "admin"})
}

func TestVerify(t *testing.T) {
	cred := models.Credential{Username: "admin", Secret: "changeme"}

	t.Run("no credential", func(t *testing.T) {
		api := &APIMock{}
		store, _ := newStore(t, models.Credential{})
		ok, err := fastAuthenticator(api, store).Verify(context.Background())
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("accepted", func(t *testing.T) {
		api := &APIMock{}
		api.On("AuthCheck", cred).Return(nil).Once()
		store, _ := newStore(t, cred)
		ok, err := fastAuthenticator(api, store).Verify(context.Background())
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, store.Active())
	})

	t.Run("retries transport failures", func(t *testing.T) {
		netErr := &panel.TransportError{Method: "GET", Path: panel.PathAuthCheck, Err: errors.New("timeout")}
		api := &APIMock{}
		api.On("AuthCheck", cred).Return(netErr).Twice()
		api.On("AuthCheck", cred).Return(nil).Once()
		store, _ := newStore(t, cred)
		ok, err := fastAuthenticator(api, store).Verify(context.Background())
		assert.NoError(t, err)
		assert.True(t, ok)
		api.AssertNumberOfCalls(t, "AuthCheck", 3)
	})

	t.Run("rejected clears", func(t *testing.T) {
		api := &APIMock{}
		api.On("AuthCheck", cred).Return(panel.ErrUnauthorized).Once()
		store, _ := newStore(t, cred)
		ok, err := fastAuthenticator(api, store).Verify(context.Background())
		assert.ErrorIs(t, err, panel.ErrUnauthorized)
		assert.False(t, ok)
		assert.False(t, store.Active())
		api.AssertNumberOfCalls(t, "AuthCheck", 1)
	})
}

func TestLogout(t *testing.T) {
	store, storage := newStore(t, models.Credential{Username: "admin", Secret: "pw"})
	require.NoError(t, fastAuthenticator(&APIMock{}, store).Logout(context.Background()))
	assert.False(t, store.Active())
	stored, _ := storage.Load(context.Background())
	assert.False(t, stored.Valid())
}

func TestRejectedVerifyBlocksLoad(t *testing.T) {
	cred := models.Credential{Username: "admin", Secret: "stale"}
	api := &APIMock{}
	api.On("AuthCheck", cred).Return(fmt.Errorf("GET %s: %w", panel.PathAuthCheck, panel.ErrUnauthorized)).Once()
	store, storage := newStore(t, cred)

	ok, err := fastAuthenticator(api, store).Verify(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, panel.ErrUnauthorized)
	stored, _ := storage.Load(context.Background())
	assert.False(t, stored.Valid())

	s := NewConfigSync(api, store, logger.Discard())
	assert.ErrorIs(t, s.Load(context.Background()), panel.ErrNotAuthenticated)
	api.AssertNotCalled(t, "RunningBots")
	api.AssertNotCalled(t, "Configs")
	api.AssertExpectations(t)
}
