package engine

import (
	"context"
	"errors"
	"fmt"

	"arbpanel/internal/logger"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"
)

// Lifecycle starts and stops bot processes. Every command is followed by a reload
// whatever its outcome, so the running set reflects what the server actually did.
type Lifecycle struct {
	api    panel.API
	reload Reloader
	log    *logger.Logger
}

func NewLifecycle(api panel.API, reload Reloader, log *logger.Logger) *Lifecycle {
	return &Lifecycle{
		api:    api,
		reload: reload,
		log:    log,
	}
}

func (l *Lifecycle) Start(ctx context.Context, id models.Identity) error {
	return l.command(ctx, "start", id, l.api.Start)
}

func (l *Lifecycle) Stop(ctx context.Context, id models.Identity) error {
	return l.command(ctx, "stop", id, l.api.Stop)
}

func (l *Lifecycle) command(ctx context.Context, name string, id models.Identity, fn func(context.Context, models.Identity) error) error {
	entry := pairEntry(l.log, "lifecycle", id)

	cmdErr := fn(ctx, id)
	if cmdErr != nil {
		entry.WithError(cmdErr).Warnf("Command %s failed.", name)
		cmdErr = fmt.Errorf("%s %s: %w", name, id, cmdErr)
	} else {
		entry.Infof("Command %s sent.", name)
	}

	loadErr := l.reload.Load(ctx)
	if loadErr != nil {
		loadErr = fmt.Errorf("reload after %s: %w", name, loadErr)
	}
	return errors.Join(cmdErr, loadErr)
}
