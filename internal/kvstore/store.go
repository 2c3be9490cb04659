package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known blob keys
const (
	KeyCartItems = "cartItems"
	KeyOrders    = "orders"
	KeyUserData  = "userData"
	KeyAuthToken = "auth_token"
)

var (
	ErrNotFound = errors.New("key not found")
)

// Store defines a key-value blob store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key and decodes it into v. It returns ErrNotFound if the key is missing.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

type namespaced struct {
	store  Store
	prefix string
}

// Namespaced scopes every key of store under prefix
func Namespaced(store Store, prefix string) Store {
	return &namespaced{store: store, prefix: prefix}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.prefix+key)
}

// SessionPrefix returns the key prefix for a user session
func SessionPrefix(userID int64) string {
	return fmt.Sprintf("session:%d:", userID)
}
