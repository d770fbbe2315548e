package engine

import (
	"context"
	"sync/atomic"

	"arbpanel/internal/models"

	"github.com/stretchr/testify/mock"
)

type APIMock struct {
	mock.Mock
}

func (m *APIMock) AuthCheck(ctx context.Context, cred models.Credential) error {
	args := m.Called(cred)
	return args.Error(0)
}

func (m *APIMock) RunningBots(ctx context.Context) (models.RunningSet, error) {
	args := m.Called()
	set, _ := args.Get(0).(models.RunningSet)
	return set, args.Error(1)
}

func (m *APIMock) Configs(ctx context.Context) ([]models.SymbolConfig, error) {
	args := m.Called()
	list, _ := args.Get(0).([]models.SymbolConfig)
	return list, args.Error(1)
}

func (m *APIMock) SaveConfigs(ctx context.Context, configs []models.SymbolConfig) error {
	args := m.Called(configs)
	return args.Error(0)
}

func (m *APIMock) Start(ctx context.Context, id models.Identity) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *APIMock) Stop(ctx context.Context, id models.Identity) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *APIMock) Logs(ctx context.Context, id models.Identity, lines int) (string, error) {
	args := m.Called(id, lines)
	return args.String(0), args.Error(1)
}

func (m *APIMock) Env(ctx context.Context) (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *APIMock) SaveEnv(ctx context.Context, text string) error {
	args := m.Called(text)
	return args.Error(0)
}

type fakeSession struct {
	active atomic.Bool
}

func activeSession() *fakeSession {
	s := &fakeSession{}
	s.active.Store(true)
	return s
}

func (s *fakeSession) Active() bool {
	return s.active.Load()
}

func pair(lighter, extended string) models.SymbolConfig {
	cfg := models.DefaultTemplate()
	cfg[models.FieldSymbolLighter] = lighter
	cfg[models.FieldSymbolExtended] = extended
	return cfg
}
