// Package selector implements the dependent institution → department pair
// used to scope a recommendation query.
//
// THE STALE-RESULT PROBLEM:
// Choosing an institution starts an asynchronous department fetch. If the
// user picks ZJU and then PKU before ZJU's departments arrive, a naive
// implementation would apply whichever response lands last, possibly
// showing ZJU departments under PKU.
//
// EPOCH STAMPS:
// Every SetPrimary bumps an epoch counter and hands the new value to its
// fetch goroutine. When the fetch returns it re-checks the counter under the
// lock; if another SetPrimary has happened since, the result is dropped.
// In-flight requests are never cancelled, only ignored on arrival.
package selector

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/metrics"
	"github.com/sakif/mentorlink/internal/model"
)

// The sentinel option meaning "no restriction". The browser form always
// used "qb" as its key; "all" is accepted as an alias.
const (
	AllKey   = "qb"
	AllLabel = "All"
)

var allOption = model.Option{Key: AllKey, Label: AllLabel}

// Directory supplies institutions and their departments.
type Directory interface {
	Institutions(ctx context.Context) ([]model.Institution, error)
	Departments(ctx context.Context, institution string) ([]string, error)
}

// Selection is a point-in-time copy of the chain's state.
type Selection struct {
	Primary      string
	Secondary    string
	Institutions []model.Option
	Departments  []model.Option
	Loading      bool
	// Err is the last fetch or selection problem, shown inline next to the
	// selector. Empty when there is none.
	Err string
}

// Chain owns one primary/secondary selection pair.
type Chain struct {
	dir    Directory
	logger *slog.Logger

	// ctx bounds every department fetch started by this chain.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	epoch   uint64
	pending chan struct{}
	sel     Selection
}

// New creates a chain whose background fetches live until Close or until
// parent is cancelled.
func New(parent context.Context, dir Directory, logger *slog.Logger) *Chain {
	ctx, cancel := context.WithCancel(parent)
	return &Chain{
		dir:    dir,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		sel:    Selection{Institutions: []model.Option{allOption}},
	}
}

// normalizeKey trims input and folds the "all" alias onto the sentinel.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.EqualFold(key, "all") {
		return AllKey
	}
	return key
}

// LoadInstitutions fills the primary option list: the sentinel first, then
// the directory's institutions in the order served. On failure only the
// sentinel remains and the error is returned.
func (c *Chain) LoadInstitutions(ctx context.Context) error {
	list, err := c.dir.Institutions(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.sel.Institutions = []model.Option{allOption}
		c.sel.Err = apperror.Message(err, "failed to load institutions")
		return err
	}

	opts := make([]model.Option, 0, len(list)+1)
	opts = append(opts, allOption)
	for _, inst := range list {
		opts = append(opts, model.Option{Key: inst.Name, Label: inst.Name})
	}
	c.sel.Institutions = opts
	c.sel.Err = ""
	return nil
}

// closed is returned by SetPrimary when there is nothing to wait for.
func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// SetPrimary selects an institution.
//
// The secondary value and its options are cleared before SetPrimary returns.
// For a real institution a background fetch loads the departments; the
// returned channel is closed once that fetch has been applied or discarded.
// The sentinel needs no fetch: its only department option is the sentinel.
//
// An empty key clears the selection. A key that is not a loaded institution
// is rejected the same way: the selection is cleared, any in-flight fetch is
// discarded and Snapshot().Err explains why. No department options from an
// earlier institution outlive a rejected change.
func (c *Chain) SetPrimary(key string) <-chan struct{} {
	key = normalizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.sel.Secondary = ""
	c.sel.Departments = nil
	c.sel.Loading = false
	c.pending = nil

	if key != "" && !containsKey(c.sel.Institutions, key) {
		c.sel.Primary = ""
		c.sel.Err = "unknown institution " + key
		return closed()
	}

	c.sel.Primary = key
	c.sel.Err = ""

	switch key {
	case "":
		return closed()
	case AllKey:
		c.sel.Departments = []model.Option{allOption}
		return closed()
	}

	c.sel.Loading = true
	done := make(chan struct{})
	c.pending = done

	c.wg.Add(1)
	go c.fetchDepartments(c.epoch, key, done)
	return done
}

func (c *Chain) fetchDepartments(epoch uint64, institution string, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)

	depts, err := c.dir.Departments(c.ctx, institution)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		metrics.StaleDiscards.WithLabelValues("departments").Inc()
		c.logger.Debug("discarding stale department options",
			slog.String("institution", institution),
			slog.String("current", c.sel.Primary),
		)
		return
	}

	c.sel.Loading = false
	c.pending = nil
	if err != nil {
		c.sel.Departments = []model.Option{}
		c.sel.Err = apperror.Message(err, "failed to load departments")
		c.logger.Warn("department fetch failed",
			slog.String("institution", institution),
			slog.String("error", err.Error()),
		)
		return
	}

	opts := make([]model.Option, 0, len(depts)+1)
	opts = append(opts, allOption)
	for _, d := range depts {
		opts = append(opts, model.Option{Key: d, Label: d})
	}
	c.sel.Departments = opts
}

// SetSecondary selects a department. It fails with a validation error, and
// changes nothing, unless key is one of the currently loaded options.
func (c *Chain) SetSecondary(key string) error {
	key = normalizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sel.Loading {
		return apperror.ValidationFailed("department", "departments are still loading")
	}
	if !containsKey(c.sel.Departments, key) {
		return apperror.ValidationFailed("department", "please choose a department from the list")
	}
	c.sel.Secondary = key
	return nil
}

// Wait blocks until the most recent department fetch has resolved, or ctx
// is done.
func (c *Chain) Wait(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return nil
	}
	select {
	case <-pending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current selection.
func (c *Chain) Snapshot() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.sel
	s.Institutions = slices.Clone(c.sel.Institutions)
	s.Departments = slices.Clone(c.sel.Departments)
	return s
}

// Resolve returns the display names the recommendation backend expects.
// The sentinel resolves to its label "All", never to its key.
func (c *Chain) Resolve() (institution, department string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sel.Primary == "" {
		return "", "", apperror.ValidationFailed("institution", "please choose an institution")
	}
	if c.sel.Secondary == "" {
		return "", "", apperror.ValidationFailed("department", "please choose a department")
	}
	return labelOf(c.sel.Institutions, c.sel.Primary), labelOf(c.sel.Departments, c.sel.Secondary), nil
}

// Close stops background fetches and waits for them to exit.
func (c *Chain) Close() {
	c.cancel()
	c.wg.Wait()
}

func containsKey(opts []model.Option, key string) bool {
	return slices.ContainsFunc(opts, func(o model.Option) bool { return o.Key == key })
}

func labelOf(opts []model.Option, key string) string {
	for _, o := range opts {
		if o.Key == key {
			return o.Label
		}
	}
	return key
}
