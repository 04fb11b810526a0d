// Package store holds the durable key/value blobs behind the chat: the
// conversation, the custom plugin list and the Gemini key.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
)

// Fixed storage keys. The conversation and registry keys are independent.
const (
	KeyConversation  = "aiChatMessages"
	KeyCustomPlugins = "customPlugins"
	KeyGeminiAPIKey  = "geminiApiKey"
)

// ErrNotFound is returned by Get when a key has never been written or was deleted.
var ErrNotFound = errors.New("store: key not found")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Store persists whole values by key. Put overwrites, last writer wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", "file":
		root, err := ResolveRoot(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewFile(root)
	case "sqlite":
		path, err := resolveDatabasePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLite(path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}
