package engine

import (
	"context"
	"fmt"

	"arbpanel/internal/models"
)

// EditDialog edits a detached draft of one row. At most one dialog is open per controller.
type EditDialog struct {
	sync     *ConfigSync
	identity models.Identity
	draft    models.SymbolConfig
	closed   bool
}

// OpenEdit starts editing the row with identity id, closing any dialog already open.
func (s *ConfigSync) OpenEdit(id models.Identity) (*EditDialog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range s.configs {
		if cfg.Identity() != id {
			continue
		}
		if s.dialog != nil {
			s.closeDialogLocked()
		}
		s.dialog = &EditDialog{
			sync:     s,
			identity: id,
			draft:    cfg.Clone(),
		}
		return s.dialog, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, id)
}

// OpenDialog returns the dialog currently open, if any.
func (s *ConfigSync) OpenDialog() (*EditDialog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialog, s.dialog != nil
}

func (s *ConfigSync) closeDialogLocked() {
	s.dialog.closed = true
	s.dialog = nil
}

func (d *EditDialog) Identity() models.Identity {
	return d.identity
}

func (d *EditDialog) Closed() bool {
	d.sync.mu.Lock()
	defer d.sync.mu.Unlock()
	return d.closed
}

func (d *EditDialog) Draft() models.SymbolConfig {
	d.sync.mu.Lock()
	defer d.sync.mu.Unlock()
	return d.draft.Clone()
}

func (d *EditDialog) Set(key, raw string) error {
	d.sync.mu.Lock()
	defer d.sync.mu.Unlock()
	if d.closed {
		return ErrDialogClosed
	}
	setField(d.draft, key, raw)
	return nil
}

// Save replaces the edited row with the draft, closes the dialog and persists the list.
func (d *EditDialog) Save(ctx context.Context) error {
	s := d.sync
	s.mu.Lock()
	if d.closed {
		s.mu.Unlock()
		return ErrDialogClosed
	}
	updated := make([]models.SymbolConfig, len(s.configs))
	for i, cfg := range s.configs {
		if cfg.Identity() == d.identity {
			updated[i] = d.draft.Clone()
			continue
		}
		updated[i] = cfg.Clone()
	}
	s.closeDialogLocked()
	s.mu.Unlock()

	return s.SaveConfigs(ctx, updated)
}

// ConfirmDelete removes the edited row, closes the dialog and persists the list.
func (d *EditDialog) ConfirmDelete(ctx context.Context) error {
	s := d.sync
	s.mu.Lock()
	if d.closed {
		s.mu.Unlock()
		return ErrDialogClosed
	}
	s.removeLocked(d.identity)
	if !d.closed {
		s.closeDialogLocked()
	}
	s.mu.Unlock()

	pairEntry(s.log, "sync", d.identity).Info("Config deleted.")
	return s.Save(ctx)
}

// Close discards the draft.
func (d *EditDialog) Close() {
	s := d.sync
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.closed {
		return
	}
	s.closeDialogLocked()
}
