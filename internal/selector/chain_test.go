package selector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================
// fakeDirectory: per-institution gates control fetch ordering
// ============================================================

type fakeDirectory struct {
	mu           sync.Mutex
	institutions []model.Institution
	instErr      error
	gates        map[string]chan struct{}
	errs         map[string]error
	calls        []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		institutions: []model.Institution{
			{Name: "ZJU", Departments: []string{"CS", "Medicine"}},
			{Name: "PKU", Departments: []string{"Math", "Physics"}},
		},
		gates: make(map[string]chan struct{}),
		errs:  make(map[string]error),
	}
}

// hold makes the next fetches for institution block until the returned func runs.
func (f *fakeDirectory) hold(institution string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[institution] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeDirectory) Institutions(context.Context) ([]model.Institution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.instErr != nil {
		return nil, f.instErr
	}
	return f.institutions, nil
}

func (f *fakeDirectory) Departments(ctx context.Context, institution string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, institution)
	gate := f.gates[institution]
	err := f.errs[institution]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	for _, inst := range f.institutions {
		if inst.Name == institution {
			return inst.Departments, nil
		}
	}
	return nil, apperror.NotFound("institution", institution)
}

func (f *fakeDirectory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestChain(t *testing.T, dir *fakeDirectory) *Chain {
	t.Helper()
	c := New(context.Background(), dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(c.Close)
	if err := c.LoadInstitutions(context.Background()); err != nil {
		t.Fatalf("LoadInstitutions: %v", err)
	}
	return c
}

func await(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not resolve")
	}
}

func keys(opts []model.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Key
	}
	return out
}

// ============================================================
// Institutions
// ============================================================

func TestLoadInstitutions(t *testing.T) {
	c := newTestChain(t, newFakeDirectory())

	want := []model.Option{{Key: "qb", Label: "All"}, {Key: "ZJU", Label: "ZJU"}, {Key: "PKU", Label: "PKU"}}
	if diff := cmp.Diff(want, c.Snapshot().Institutions); diff != "" {
		t.Errorf("Institutions mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInstitutions_Failure(t *testing.T) {
	dir := newFakeDirectory()
	dir.instErr = apperror.Gateway("directory offline")

	c := New(context.Background(), dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer c.Close()

	if err := c.LoadInstitutions(context.Background()); err == nil {
		t.Fatal("LoadInstitutions() should return the gateway error")
	}
	snap := c.Snapshot()
	if diff := cmp.Diff([]string{"qb"}, keys(snap.Institutions)); diff != "" {
		t.Errorf("only the sentinel should remain (-want +got):\n%s", diff)
	}
	if snap.Err != "directory offline" {
		t.Errorf("Err = %q", snap.Err)
	}
}

// ============================================================
// SetPrimary
// ============================================================

func TestSetPrimary_LoadsDepartments(t *testing.T) {
	c := newTestChain(t, newFakeDirectory())

	await(t, c.SetPrimary("ZJU"))

	snap := c.Snapshot()
	if snap.Loading {
		t.Error("Loading should be false after the fetch resolved")
	}
	if diff := cmp.Diff([]string{"qb", "CS", "Medicine"}, keys(snap.Departments)); diff != "" {
		t.Errorf("Departments mismatch (-want +got):\n%s", diff)
	}
}

func TestSetPrimary_ClearsSynchronously(t *testing.T) {
	dir := newFakeDirectory()
	c := newTestChain(t, dir)

	await(t, c.SetPrimary("ZJU"))
	if err := c.SetSecondary("CS"); err != nil {
		t.Fatalf("SetSecondary: %v", err)
	}

	release := dir.hold("PKU")
	done := c.SetPrimary("PKU")

	snap := c.Snapshot()
	if snap.Secondary != "" || len(snap.Departments) != 0 || !snap.Loading {
		t.Errorf("before the fetch resolves: %+v", snap)
	}

	release()
	await(t, done)
}

func TestSetPrimary_Sentinel(t *testing.T) {
	for _, key := range []string{"qb", "all", " ALL "} {
		t.Run(key, func(t *testing.T) {
			dir := newFakeDirectory()
			c := newTestChain(t, dir)

			done := c.SetPrimary(key)
			select {
			case <-done:
			default:
				t.Fatal("sentinel should resolve synchronously")
			}

			snap := c.Snapshot()
			if snap.Primary != "qb" {
				t.Errorf("Primary = %q, want qb", snap.Primary)
			}
			if diff := cmp.Diff([]model.Option{{Key: "qb", Label: "All"}}, snap.Departments); diff != "" {
				t.Errorf("Departments mismatch (-want +got):\n%s", diff)
			}
			if dir.callCount() != 0 {
				t.Error("sentinel must not call the directory")
			}
		})
	}
}

func TestSetPrimary_Unknown(t *testing.T) {
	dir := newFakeDirectory()
	c := newTestChain(t, dir)
	await(t, c.SetPrimary("ZJU"))
	if err := c.SetSecondary("CS"); err != nil {
		t.Fatalf("SetSecondary(CS): %v", err)
	}

	await(t, c.SetPrimary("MIT"))

	snap := c.Snapshot()
	if snap.Primary != "" || snap.Secondary != "" {
		t.Errorf("selection = %q/%q, want cleared", snap.Primary, snap.Secondary)
	}
	if len(snap.Departments) != 0 {
		t.Errorf("Departments = %v, want none", snap.Departments)
	}
	if snap.Err != "unknown institution MIT" {
		t.Errorf("Err = %q", snap.Err)
	}
	if dir.callCount() != 1 {
		t.Errorf("directory calls = %d, want 1", dir.callCount())
	}
}

// With the institution list down to the sentinel, picking a real
// institution leaves the degraded empty state, never the earlier selection.
func TestSetPrimary_AfterInstitutionsLost(t *testing.T) {
	dir := newFakeDirectory()
	c := newTestChain(t, dir)
	await(t, c.SetPrimary("ZJU"))
	if err := c.SetSecondary("Medicine"); err != nil {
		t.Fatalf("SetSecondary(Medicine): %v", err)
	}

	dir.mu.Lock()
	dir.instErr = apperror.Gateway("directory offline")
	dir.mu.Unlock()
	if err := c.LoadInstitutions(context.Background()); err == nil {
		t.Fatal("LoadInstitutions() should fail")
	}

	await(t, c.SetPrimary("ZJU"))

	snap := c.Snapshot()
	if snap.Secondary != "" {
		t.Errorf("Secondary = %q, want unset", snap.Secondary)
	}
	if len(snap.Departments) != 0 {
		t.Errorf("Departments = %v, want empty", snap.Departments)
	}
	if _, _, err := c.Resolve(); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Resolve() err = %v, want ErrValidation", err)
	}
}

// A rejected key also retires a fetch that was still running.
func TestSetPrimary_UnknownDiscardsInFlight(t *testing.T) {
	dir := newFakeDirectory()
	c := newTestChain(t, dir)

	release := dir.hold("PKU")
	done := c.SetPrimary("PKU")
	await(t, c.SetPrimary("MIT"))

	release()
	await(t, done)

	snap := c.Snapshot()
	if snap.Primary != "" || len(snap.Departments) != 0 || snap.Loading {
		t.Errorf("stale PKU fetch applied: %+v", snap)
	}
}

// The later selection wins whichever response arrives first.
func TestSetPrimary_DiscardsStaleResult(t *testing.T) {
	orders := map[string][]string{
		"stale arrives last":  {"PKU", "ZJU"},
		"stale arrives first": {"ZJU", "PKU"},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			dir := newFakeDirectory()
			c := newTestChain(t, dir)

			releases := map[string]func(){"ZJU": dir.hold("ZJU"), "PKU": dir.hold("PKU")}
			dones := map[string]<-chan struct{}{}
			dones["ZJU"] = c.SetPrimary("ZJU")
			dones["PKU"] = c.SetPrimary("PKU")

			for _, inst := range order {
				releases[inst]()
				await(t, dones[inst])
			}

			snap := c.Snapshot()
			if snap.Primary != "PKU" {
				t.Fatalf("Primary = %q, want PKU", snap.Primary)
			}
			if diff := cmp.Diff([]string{"qb", "Math", "Physics"}, keys(snap.Departments)); diff != "" {
				t.Errorf("Departments must reflect PKU only (-want +got):\n%s", diff)
			}
			if snap.Loading {
				t.Error("Loading should be false")
			}
		})
	}
}

func TestSetPrimary_FetchFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.errs["ZJU"] = apperror.Gateway("directory timed out")
	c := newTestChain(t, dir)

	await(t, c.SetPrimary("ZJU"))

	snap := c.Snapshot()
	if len(snap.Departments) != 0 {
		t.Errorf("Departments = %v, want empty", snap.Departments)
	}
	if snap.Secondary != "" {
		t.Errorf("Secondary = %q, want unset", snap.Secondary)
	}
	if snap.Err != "directory timed out" {
		t.Errorf("Err = %q", snap.Err)
	}
	if err := c.SetSecondary("CS"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SetSecondary after failure: err = %v, want ErrValidation", err)
	}
}

// ============================================================
// SetSecondary / Resolve
// ============================================================

func TestSetSecondary_RejectsUnknown(t *testing.T) {
	c := newTestChain(t, newFakeDirectory())
	await(t, c.SetPrimary("ZJU"))
	if err := c.SetSecondary("CS"); err != nil {
		t.Fatalf("SetSecondary(CS): %v", err)
	}
	before := c.Snapshot()

	err := c.SetSecondary("Math")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if diff := cmp.Diff(before, c.Snapshot()); diff != "" {
		t.Errorf("state changed on rejected SetSecondary (-before +after):\n%s", diff)
	}
}

func TestSetSecondary_WhileLoading(t *testing.T) {
	dir := newFakeDirectory()
	c := newTestChain(t, dir)

	release := dir.hold("ZJU")
	done := c.SetPrimary("ZJU")

	if err := c.SetSecondary("CS"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation while loading", err)
	}
	release()
	await(t, done)
}

func TestResolve(t *testing.T) {
	c := newTestChain(t, newFakeDirectory())

	if _, _, err := c.Resolve(); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Resolve() with nothing selected: err = %v", err)
	}

	c.SetPrimary("qb")
	if _, _, err := c.Resolve(); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Resolve() without department: err = %v", err)
	}

	if err := c.SetSecondary("all"); err != nil {
		t.Fatalf("SetSecondary(all): %v", err)
	}
	inst, dept, err := c.Resolve()
	if err != nil || inst != "All" || dept != "All" {
		t.Errorf("Resolve() = %q, %q, %v; want All, All", inst, dept, err)
	}

	await(t, c.SetPrimary("PKU"))
	_ = c.SetSecondary("Physics")
	inst, dept, _ = c.Resolve()
	if inst != "PKU" || dept != "Physics" {
		t.Errorf("Resolve() = %q, %q", inst, dept)
	}
}

// ============================================================
// Wait / Close
// ============================================================

func TestWait(t *testing.T) {
	dir := newFakeDirectory()
	c := newTestChain(t, dir)

	if err := c.Wait(context.Background()); err != nil {
		t.Errorf("Wait() with nothing pending: %v", err)
	}

	release := dir.hold("ZJU")
	c.SetPrimary("ZJU")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}

	release()
	if err := c.Wait(context.Background()); err != nil {
		t.Errorf("Wait() after release: %v", err)
	}
	if c.Snapshot().Loading {
		t.Error("Loading should be false after Wait")
	}
}

func TestClose_StopsBlockedFetch(t *testing.T) {
	dir := newFakeDirectory()
	dir.hold("ZJU") // never released
	c := New(context.Background(), dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_ = c.LoadInstitutions(context.Background())

	done := c.SetPrimary("ZJU")
	c.Close()

	await(t, done)
}
