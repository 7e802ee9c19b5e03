// Package storage is the key-value persistence port for player state.
// Every blob is scoped by an optional player identifier; the key helpers
// below are the single source of truth for how scopes map to keys.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store reads and writes opaque blobs by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Key prefixes. A blank scope means the anonymous local player.
const (
	PetPrefix      = "regenmon-save"
	CoinsPrefix    = "regenmon-coins"
	HistoryPrefix  = "regenmon-history"
	TrainingPrefix = "regenmon-training"
	ChatPrefix     = "regenmon-chat"
	MemoryPrefix   = "regenmon-memories"
	HubPrefix      = "regenmon-hub"

	localSuffix = "local"
)

// PetKey returns "regenmon-save" or "regenmon-save-<scope>".
func PetKey(scope string) string { return scoped(PetPrefix, scope) }

func TrainingKey(scope string) string { return scoped(TrainingPrefix, scope) }
func ChatKey(scope string) string     { return scoped(ChatPrefix, scope) }
func MemoryKey(scope string) string   { return scoped(MemoryPrefix, scope) }
func HubKey(scope string) string      { return scoped(HubPrefix, scope) }

// CoinsKey and HistoryKey use an explicit "-local" suffix for the anonymous
// player so its data can be migrated once a scope appears.
func CoinsKey(scope string) string   { return localScoped(CoinsPrefix, scope) }
func HistoryKey(scope string) string { return localScoped(HistoryPrefix, scope) }

func scoped(prefix, scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return prefix
	}
	return prefix + "-" + scope
}

func localScoped(prefix, scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = localSuffix
	}
	return prefix + "-" + scope
}

// GetJSON decodes the value at key into v. It returns ErrNotFound when the
// key is absent and a wrapped error when the blob is corrupt.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// Migrate moves the value at from to to when to is empty and from is not.
// The source is removed so only one destination ever adopts it. It reports
// whether a move happened.
func Migrate(ctx context.Context, s Store, from, to string) (bool, error) {
	if _, err := s.Get(ctx, to); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	data, err := s.Get(ctx, from)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.Set(ctx, to, data); err != nil {
		return false, err
	}
	if err := s.Remove(ctx, from); err != nil {
		// Undo the copy rather than leave the value adoptable twice.
		if rerr := s.Remove(ctx, to); rerr != nil {
			return false, errors.Join(fmt.Errorf("remove %s: %w", from, err), rerr)
		}
		return false, fmt.Errorf("remove %s: %w", from, err)
	}
	return true, nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage: key is empty")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}
