package engine

import (
	"time"

	"arbpanel/internal/models"
)

// State is a detached snapshot of what the controller holds.
type State struct {
	Configs   []models.SymbolConfig
	Running   models.RunningSet
	Loading   bool
	Loaded    bool
	LastError error
	UpdatedAt time.Time
}

// Row is one rendered line: the config plus the start/stop affordance it gets.
type Row struct {
	Identity models.Identity
	Config   models.SymbolConfig
	Running  bool
}
