// Package session owns the one Session Record of the running client.
//
// THE SESSION RECORD LIFECYCLE:
//
//	process start ──Hydrate──▶ record read from the Durable Session Store
//	                            (absent or malformed → unauthenticated)
//	login success ──Login────▶ store written first, then memory swapped
//	logout        ──Logout───▶ memory cleared, then store entry removed
//
// Every other part of the client reads the record through Current() and
// never touches the store directly. The store is the source of truth across
// restarts; the in-memory copy is the source of truth while running.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/model"
	"github.com/sakif/mentorlink/internal/repository"
)

// Manager holds the live Session Record and keeps it in step with the store.
//
// It is safe for concurrent use: HTTP handlers read Current() from many
// goroutines while a login or logout request may be writing.
type Manager struct {
	store  repository.KVStore
	codec  Codec
	logger *slog.Logger

	once sync.Once

	mu     sync.RWMutex
	record model.SessionRecord
}

// NewManager creates a Manager. The record starts unauthenticated until
// Hydrate is called. A nil codec means JSONCodec.
func NewManager(store repository.KVStore, codec Codec, logger *slog.Logger) *Manager {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Manager{
		store:  store,
		codec:  codec,
		logger: logger,
	}
}

// Hydrate loads the persisted record. Only the first call does anything;
// the record loaded at startup is authoritative for the rest of the process.
//
// A missing entry leaves the session unauthenticated. A malformed entry is
// logged, deleted from the store, and also leaves it unauthenticated.
// Hydrate never fails: a broken store just means starting logged out.
func (m *Manager) Hydrate(ctx context.Context) {
	m.once.Do(func() {
		rec := m.load(ctx)
		m.mu.Lock()
		m.record = rec
		m.mu.Unlock()

		m.logger.Info("session hydrated",
			slog.Bool("authenticated", rec.Authenticated),
			slog.String("role", string(rec.Role)),
		)
	})
}

func (m *Manager) load(ctx context.Context) model.SessionRecord {
	raw, err := m.store.Get(ctx, repository.SessionKey)
	if errors.Is(err, apperror.ErrNotFound) {
		return model.Unauthenticated()
	}
	if err != nil {
		m.logger.Warn("session store unreadable, starting logged out", slog.String("error", err.Error()))
		return model.Unauthenticated()
	}

	rec, err := m.codec.Decode(raw)
	if err != nil {
		m.logger.Warn("discarding malformed session record", slog.String("error", err.Error()))
		if delErr := m.store.Delete(ctx, repository.SessionKey); delErr != nil {
			m.logger.Error("failed to delete malformed session record", slog.String("error", delErr.Error()))
		}
		return model.Unauthenticated()
	}
	return rec
}

// Current returns a copy of the live record.
func (m *Manager) Current() model.SessionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.record.Clone()
}

// Login records a successful authentication.
//
// The record is persisted before it becomes visible in memory. If the write
// fails the previous record stays in place and the error is returned, so a
// restart can never disagree with what the running client showed.
func (m *Manager) Login(ctx context.Context, identity string, role model.Role) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return apperror.ValidationFailed("identity", "identity is required")
	}
	if !role.Valid() {
		return apperror.ValidationFailed("role", fmt.Sprintf("unknown role %q", role))
	}

	rec := model.Authenticated(identity, role)
	raw, err := m.codec.Encode(rec)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, repository.SessionKey, raw); err != nil {
		return fmt.Errorf("session: persisting login: %w", err)
	}

	m.mu.Lock()
	m.record = rec
	m.mu.Unlock()

	m.logger.Info("session established", slog.String("identity", identity), slog.String("role", string(role)))
	return nil
}

// Logout clears the session.
//
// Memory is always cleared, even when the store delete fails: the user asked
// to be logged out and the running client must honor that. The store error is
// still returned so the caller can log it.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	prev := m.record.ID()
	m.record = model.Unauthenticated()
	m.mu.Unlock()

	if err := m.store.Delete(ctx, repository.SessionKey); err != nil {
		return fmt.Errorf("session: clearing stored record: %w", err)
	}
	m.logger.Info("session cleared", slog.String("identity", prev))
	return nil
}

// Remember stores the identity to prefill on the login form.
func (m *Manager) Remember(ctx context.Context, identity string) error {
	return m.store.Put(ctx, repository.RememberedUserKey, strings.TrimSpace(identity))
}

// Forget removes the remembered identity.
func (m *Manager) Forget(ctx context.Context) error {
	return m.store.Delete(ctx, repository.RememberedUserKey)
}

// Remembered returns the remembered identity, or "" if there is none.
func (m *Manager) Remembered(ctx context.Context) string {
	v, err := m.store.Get(ctx, repository.RememberedUserKey)
	if err != nil {
		return ""
	}
	return v
}
