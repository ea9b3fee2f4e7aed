package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys names the storage slots of a session.
type Keys struct {
	Token string
	User  string
}

// DefaultKeys returns the keys used by the web dashboards.
func DefaultKeys() Keys {
	return Keys{Token: "token", User: "user"}
}

// Manager binds a Store to the token and user keys.
type Manager struct {
	store Store
	keys  Keys
}

// NewManager creates a session manager. Empty key names fall back to DefaultKeys.
func NewManager(store Store, keys Keys) *Manager {
	def := DefaultKeys()
	if keys.Token == "" {
		keys.Token = def.Token
	}
	if keys.User == "" {
		keys.User = def.User
	}
	return &Manager{store: store, keys: keys}
}

// Keys returns the key names in use.
func (m *Manager) Keys() Keys {
	return m.keys
}

// Token returns the stored bearer token, or "" when the session is anonymous.
func (m *Manager) Token(ctx context.Context) (string, error) {
	token, err := m.store.Get(ctx, m.keys.Token)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: load token: %w", err)
	}
	return token, nil
}

// User decodes the stored identity record into dst. It reports false when no
// user is stored.
func (m *Manager) User(ctx context.Context, dst any) (bool, error) {
	raw, err := m.store.Get(ctx, m.keys.User)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: load user: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("session: decode user: %w", err)
	}
	return true, nil
}

// Save writes the token and the JSON form of user.
func (m *Manager) Save(ctx context.Context, token string, user any) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := m.store.Set(ctx, m.keys.Token, token); err != nil {
		return fmt.Errorf("session: store token: %w", err)
	}
	if err := m.store.Set(ctx, m.keys.User, string(data)); err != nil {
		return fmt.Errorf("session: store user: %w", err)
	}
	return nil
}

// Evict removes both keys. Both deletions are attempted even if the first fails.
func (m *Manager) Evict(ctx context.Context) error {
	errToken := m.store.Delete(ctx, m.keys.Token)
	errUser := m.store.Delete(ctx, m.keys.User)
	if err := errors.Join(errToken, errUser); err != nil {
		return fmt.Errorf("session: evict: %w", err)
	}
	return nil
}
