package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"arbpanel/internal/models"

	"github.com/spf13/viper"
)

// FileStorage keeps the credential in a JSON document readable only by the owner.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	if filepath.Ext(path) == "" {
		path += ".json"
	}
	return &FileStorage{path: path}
}

func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Load(_ context.Context) (models.Credential, error) {
	if _, err := os.Stat(f.path); errors.Is(err, fs.ErrNotExist) {
		return models.Credential{}, nil
	}

	v := viper.New()
	v.SetConfigFile(f.path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return models.Credential{}, fmt.Errorf("read %s: %w", f.path, err)
	}

	return models.Credential{
		Username: v.GetString(KeyUser),
		Secret:   v.GetString(KeySecret),
	}, nil
}

func (f *FileStorage) Save(_ context.Context, cred models.Credential) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	// Create with owner-only permissions before viper truncates and writes it.
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	_ = file.Close()

	v := viper.New()
	v.SetConfigType("json")
	v.Set(KeyUser, cred.Username)
	v.Set(KeySecret, cred.Secret)
	if err := v.WriteConfigAs(f.path); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStorage) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", f.path, err)
	}
	return nil
}
