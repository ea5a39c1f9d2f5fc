// Package view keeps the per-view state of the recommendation page.
//
// Each browser view (tab) that opens /user gets its own Workspace: a
// selector chain plus a navigation machine. Two tabs never share selection
// or results. Workspaces are addressed by an xid carried in the page's
// forms and expire after an idle TTL.
package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/xid"

	"github.com/sakif/mentorlink/internal/metrics"
	"github.com/sakif/mentorlink/internal/recommend"
	"github.com/sakif/mentorlink/internal/selector"
)

// Workspace is one view's recommendation state.
type Workspace struct {
	ID      string
	Chain   *selector.Chain
	Machine *recommend.Machine
}

func (w *Workspace) close() {
	w.Chain.Close()
	w.Machine.Close()
}

// Registry creates, finds and expires workspaces.
type Registry struct {
	ctx     context.Context
	dir     selector.Directory
	rec     recommend.Recommender
	details recommend.DetailSource
	logger  *slog.Logger
	cache   *cache.Cache
}

// NewRegistry creates a registry. Workspaces idle for longer than ttl are
// evicted and their background work stopped. Cancelling ctx stops the
// background work of every workspace.
func NewRegistry(ctx context.Context, dir selector.Directory, rec recommend.Recommender,
	details recommend.DetailSource, ttl time.Duration, logger *slog.Logger) *Registry {

	c := cache.New(ttl, cleanupInterval(ttl))
	c.OnEvicted(func(id string, v any) {
		if ws, ok := v.(*Workspace); ok {
			ws.close()
			metrics.Workspaces.Dec()
			logger.Debug("workspace closed", slog.String("workspace", id))
		}
	})

	return &Registry{
		ctx:     ctx,
		dir:     dir,
		rec:     rec,
		details: details,
		logger:  logger,
		cache:   c,
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 2*time.Minute {
		return ttl / 2
	}
	return time.Minute
}

// Open creates a workspace and loads its institution list.
//
// A directory failure does not prevent opening: the chain is left with only
// the sentinel option and its snapshot carries the error message.
func (r *Registry) Open(ctx context.Context) *Workspace {
	ws := &Workspace{
		ID:      xid.New().String(),
		Chain:   selector.New(r.ctx, r.dir, r.logger),
		Machine: recommend.New(r.ctx, r.rec, r.details, r.logger),
	}
	if err := ws.Chain.LoadInstitutions(ctx); err != nil {
		r.logger.Warn("institution list unavailable", slog.String("error", err.Error()))
	}

	r.cache.SetDefault(ws.ID, ws)
	metrics.Workspaces.Inc()
	r.logger.Debug("workspace opened", slog.String("workspace", ws.ID))
	return ws
}

// Get returns a live workspace and restarts its idle timer.
func (r *Registry) Get(id string) (*Workspace, bool) {
	if _, err := xid.FromString(id); err != nil {
		return nil, false
	}
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	ws := v.(*Workspace)
	r.cache.SetDefault(id, ws)
	return ws, true
}

// Discard closes one workspace immediately.
func (r *Registry) Discard(id string) {
	r.cache.Delete(id)
}

// Len reports the number of live workspaces.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close closes every workspace. Used on logout and shutdown.
func (r *Registry) Close() {
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
