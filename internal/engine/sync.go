package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"arbpanel/internal/logger"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownIdentity = errors.New("no config with that identity")
	ErrDialogClosed    = errors.New("edit dialog is closed")
)

// SessionState reports whether a credential is present.
type SessionState interface {
	Active() bool
}

// Reloader is what command paths call after the server has changed.
type Reloader interface {
	Load(ctx context.Context) error
}

// ConfigSync keeps the local editable config list and the running set in line with the server.
type ConfigSync struct {
	api     panel.API
	session SessionState
	log     *logger.Logger

	mu        sync.Mutex
	configs   []models.SymbolConfig
	running   models.RunningSet
	inflight  int
	issued    uint64
	loaded    bool
	lastErr   error
	updatedAt time.Time
	dialog    *EditDialog
}

func NewConfigSync(api panel.API, session SessionState, log *logger.Logger) *ConfigSync {
	return &ConfigSync{
		api:     api,
		session: session,
		log:     log,
		running: models.RunningSet{},
	}
}

// Load fetches the running set and the config list together and applies both or neither.
// A load that finishes after a newer one was issued is discarded.
func (s *ConfigSync) Load(ctx context.Context) error {
	if !s.session.Active() {
		return panel.ErrNotAuthenticated
	}

	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.inflight++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	var (
		running models.RunningSet
		configs []models.SymbolConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		set, err := s.api.RunningBots(gctx)
		if err != nil {
			return fmt.Errorf("running bots: %w", err)
		}
		running = set
		return nil
	})
	g.Go(func() error {
		list, err := s.api.Configs(gctx)
		if err != nil {
			return fmt.Errorf("configs: %w", err)
		}
		configs = list
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		s.logEntry().WithField("generation", gen).Debug("Discarding superseded load.")
		return nil
	}
	if err != nil {
		s.lastErr = err
		s.logEntry().WithError(err).Warn("Load failed.")
		return err
	}

	if running == nil {
		running = models.RunningSet{}
	}
	s.configs = configs
	s.running = running
	s.loaded = true
	s.lastErr = nil
	s.updatedAt = time.Now()
	s.logEntry().WithFields(logrus.Fields{
		"configs": len(configs),
		"running": len(running),
	}).Debug("State loaded.")
	return nil
}

// Save normalizes the current local list, persists it and reloads.
func (s *ConfigSync) Save(ctx context.Context) error {
	s.mu.Lock()
	configs := models.CloneConfigs(s.configs)
	s.mu.Unlock()
	return s.SaveConfigs(ctx, configs)
}

// SaveConfigs persists configs in server form and reloads. A failed save leaves local state as it was.
func (s *ConfigSync) SaveConfigs(ctx context.Context, configs []models.SymbolConfig) error {
	if !s.session.Active() {
		return panel.ErrNotAuthenticated
	}

	cleaned := make([]models.SymbolConfig, len(configs))
	for i, cfg := range configs {
		cleaned[i] = ToServerForm(cfg)
	}

	if err := s.api.SaveConfigs(ctx, cleaned); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.logEntry().WithError(err).Warn("Save failed.")
		return fmt.Errorf("save configs: %w", err)
	}
	s.logEntry().WithField("configs", len(cleaned)).Info("Configs saved.")

	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("reload after save: %w", err)
	}
	return nil
}

// Add appends a new row built from template, or from the default template when nil. Nothing is sent.
func (s *ConfigSync) Add(template models.SymbolConfig) models.Identity {
	if template == nil {
		template = models.DefaultTemplate()
	}
	row := template.Clone()

	s.mu.Lock()
	s.configs = append(s.configs, row)
	s.mu.Unlock()
	return row.Identity()
}

// Remove drops every row with identity id and closes an edit dialog open on it. Nothing is sent.
func (s *ConfigSync) Remove(id models.Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *ConfigSync) removeLocked(id models.Identity) int {
	kept := s.configs[:0:0]
	removed := 0
	for _, cfg := range s.configs {
		if cfg.Identity() == id {
			removed++
			continue
		}
		kept = append(kept, cfg)
	}
	s.configs = kept

	if s.dialog != nil && s.dialog.identity == id {
		s.closeDialogLocked()
	}
	return removed
}

// Edit applies one field change to the first row with identity id.
// Numeric fields go through keystroke sanitizing and hold text until the next save.
func (s *ConfigSync) Edit(id models.Identity, key, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cfg := range s.configs {
		if cfg.Identity() != id {
			continue
		}
		setField(cfg, key, raw)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownIdentity, id)
}

func setField(cfg models.SymbolConfig, key, raw string) {
	if models.IsNumericField(key) {
		cfg[key] = SanitizeNumericKeystroke(FieldText(cfg[key]), raw)
		return
	}
	cfg[key] = raw
}

// IsRunning reports whether the server's running set holds the instance for id.
func (s *ConfigSync) IsRunning(id models.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running.Contains(id.RunningKey())
}

func (s *ConfigSync) Configs() []models.SymbolConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneConfigs(s.configs)
}

func (s *ConfigSync) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]Row, 0, len(s.configs))
	for _, cfg := range s.configs {
		id := cfg.Identity()
		rows = append(rows, Row{
			Identity: id,
			Config:   cfg.Clone(),
			Running:  s.running.Contains(id.RunningKey()),
		})
	}
	return rows
}

func (s *ConfigSync) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	running := make(models.RunningSet, len(s.running))
	for k := range s.running {
		running[k] = struct{}{}
	}
	return State{
		Configs:   models.CloneConfigs(s.configs),
		Running:   running,
		Loading:   s.inflight > 0,
		Loaded:    s.loaded,
		LastError: s.lastErr,
		UpdatedAt: s.updatedAt,
	}
}

func (s *ConfigSync) logEntry() *logrus.Entry {
	return componentEntry(s.log, "sync")
}
