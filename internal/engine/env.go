package engine

import (
	"context"
	"fmt"
	"sync"

	"arbpanel/internal/logger"
	"arbpanel/internal/panel"

	"github.com/joho/godotenv"
)

// EnvEditor holds the server's environment document as opaque text.
type EnvEditor struct {
	api panel.API
	log *logger.Logger

	mu     sync.Mutex
	text   string
	loaded bool
}

func NewEnvEditor(api panel.API, log *logger.Logger) *EnvEditor {
	return &EnvEditor{api: api, log: log}
}

func (e *EnvEditor) Load(ctx context.Context) (string, error) {
	text, err := e.api.Env(ctx)
	if err != nil {
		return "", fmt.Errorf("load env: %w", err)
	}
	e.mu.Lock()
	e.text = text
	e.loaded = true
	e.mu.Unlock()
	return text, nil
}

// Save writes text back unchanged. Text that does not parse as dotenv is still sent, with a warning.
func (e *EnvEditor) Save(ctx context.Context, text string) error {
	if _, err := ParseEnv(text); err != nil {
		componentEntry(e.log, "env").WithError(err).Warn("Env document does not parse, saving anyway.")
	}
	if err := e.api.SaveEnv(ctx, text); err != nil {
		return fmt.Errorf("save env: %w", err)
	}
	e.mu.Lock()
	e.text = text
	e.loaded = true
	e.mu.Unlock()
	return nil
}

// Text returns the last loaded or saved document.
func (e *EnvEditor) Text() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, e.loaded
}

func ParseEnv(text string) (map[string]string, error) {
	return godotenv.Unmarshal(text)
}
