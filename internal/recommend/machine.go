// Package recommend implements the navigation state machine behind the
// recommendation view.
//
// STATES AND EVENTS:
//
//	         submit (ok)
//	  Form ──────────────▶ Results ──expand(id)──▶ Results{expanded=id}
//	   ▲                     │  ▲                        │
//	   └────── back ─────────┘  └──────── collapse ──────┘
//
// The list and the expanded review panel are one stage; the only extra
// state is which single item (if any) is expanded. Expanding a second item
// replaces the first.
//
// Both asynchronous operations carry an epoch stamp, like the selector
// chain: a recommendation or detail response that arrives after the view has
// moved on is dropped.
package recommend

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

// Stage is the coarse state of the machine.
type Stage int

const (
	Form Stage = iota
	Results
)

func (s Stage) String() string {
	switch s {
	case Form:
		return "form"
	case Results:
		return "results"
	default:
		return "unknown"
	}
}

// Recommender runs a recommendation query.
type Recommender interface {
	Recommend(ctx context.Context, query, institution, department string) ([]model.ResultItem, error)
}

// DetailSource loads the review panel content for one tutor.
type DetailSource interface {
	TutorDetail(ctx context.Context, tutorID string) (model.TutorDetail, error)
}

// Resolver yields the institution and department names to query with.
// *selector.Chain satisfies it.
type Resolver interface {
	Resolve() (institution, department string, err error)
}

// Detail is the expanded panel's content. With Loading false and no
// sentences it renders as "no public reviews".
type Detail struct {
	TutorID   string
	Loading   bool
	Name      string
	Sentences []string
}

// State is a point-in-time copy of the machine.
type State struct {
	Stage      Stage
	Results    []model.ResultItem
	ExpandedID string
	Detail     Detail
	// Query is the last query accepted for submission, kept to refill the form.
	Query string
	// Err is the message to show inline; empty when there is none.
	Err        string
	Submitting bool
	// Searched is true once a submission succeeded, so an empty Results
	// means "no matches" rather than "not searched yet".
	Searched bool
}

// Machine is one view's recommendation state. Safe for concurrent use.
type Machine struct {
	rec     Recommender
	details DetailSource
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	submitEpoch uint64
	expandEpoch uint64
	pending     chan struct{}
	st          State
}

// New creates a machine in the Form stage. Detail fetches run under a
// context derived from parent and stop on Close.
func New(parent context.Context, rec Recommender, details DetailSource, logger *slog.Logger) *Machine {
	ctx, cancel := context.WithCancel(parent)
	return &Machine{
		rec:     rec,
		details: details,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit validates the query and selection, calls the recommendation
// backend, and on success moves to Results with a fresh list.
//
// Validation failures never reach the backend. On a backend failure the
// machine stays in Form with the error message set. If another Submit
// starts while this one is in flight, only the later one is applied.
func (m *Machine) Submit(ctx context.Context, query string, sel Resolver) error {
	m.mu.Lock()
	if m.st.Stage != Form {
		m.mu.Unlock()
		return apperror.InvalidState("submit", m.st.Stage.String())
	}

	query = strings.TrimSpace(query)
	if query == "" {
		err := apperror.ValidationFailed("query", "please describe the mentor you are looking for")
		m.st.Err = err.Message
		m.mu.Unlock()
		return err
	}
	institution, department, err := sel.Resolve()
	if err != nil {
		m.st.Err = apperror.Message(err, "please choose an institution and department")
		m.st.Query = query
		m.mu.Unlock()
		return err
	}

	m.submitEpoch++
	epoch := m.submitEpoch
	m.st.Query = query
	m.st.Err = ""
	m.st.Submitting = true
	m.mu.Unlock()

	items, err := m.rec.Recommend(ctx, query, institution, department)

	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.submitEpoch || m.st.Stage != Form {
		metrics.StaleDiscards.WithLabelValues("recommendations").Inc()
		m.logger.Debug("discarding superseded recommendation response", slog.String("query", query))
		return nil
	}

	m.st.Submitting = false
	if err != nil {
		m.st.Err = apperror.Message(err, "failed to get recommendations, please try again later")
		return err
	}

	if items == nil {
		items = []model.ResultItem{}
	}
	m.expandEpoch++
	m.st.Stage = Results
	m.st.Results = items
	m.st.ExpandedID = ""
	m.st.Detail = Detail{}
	m.st.Searched = true

	m.logger.Info("recommendations received",
		slog.String("institution", institution),
		slog.String("department", department),
		slog.Int("count", len(items)),
	)
	return nil
}

// Back returns to the form, dropping the list and any expanded item.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st.Stage != Results {
		return apperror.InvalidState("back", m.st.Stage.String())
	}
	m.expandEpoch++
	m.pending = nil
	m.st.Stage = Form
	m.st.Results = nil
	m.st.ExpandedID = ""
	m.st.Detail = Detail{}
	m.st.Err = ""
	m.st.Searched = false
	return nil
}

// Expand opens the review panel of one result item, replacing any other
// expanded item, and starts loading its detail. The returned channel is
// closed once that load has been applied or discarded.
//
// A failed load is not an error for the view: the panel stays open and
// shows no reviews.
func (m *Machine) Expand(tutorID string) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st.Stage != Results {
		return nil, apperror.InvalidState("expand", m.st.Stage.String())
	}
	if m.indexOf(tutorID) < 0 {
		return nil, apperror.NotFound("result item", tutorID)
	}

	m.expandEpoch++
	m.st.ExpandedID = tutorID
	m.st.Detail = Detail{TutorID: tutorID, Loading: true}

	done := make(chan struct{})
	m.pending = done
	m.wg.Add(1)
	go m.fetchDetail(m.expandEpoch, tutorID, done)
	return done, nil
}

func (m *Machine) fetchDetail(epoch uint64, tutorID string, done chan struct{}) {
	defer m.wg.Done()
	defer close(done)

	d, err := m.details.TutorDetail(m.ctx, tutorID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.expandEpoch {
		metrics.StaleDiscards.WithLabelValues("detail").Inc()
		return
	}
	m.pending = nil
	if err != nil {
		m.logger.Warn("tutor detail unavailable", slog.String("tutor_id", tutorID), slog.String("error", err.Error()))
		m.st.Detail = Detail{TutorID: tutorID}
		return
	}
	m.st.Detail = Detail{
		TutorID:   tutorID,
		Name:      d.Name,
		Sentences: d.ReviewSentences,
	}
}

// Collapse closes the expanded panel and returns to the list.
// The list itself is untouched.
func (m *Machine) Collapse() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st.Stage != Results {
		return apperror.InvalidState("collapse", m.st.Stage.String())
	}
	m.expandEpoch++
	m.pending = nil
	m.st.ExpandedID = ""
	m.st.Detail = Detail{}
	return nil
}

// DetailURL returns the external profile page of a listed tutor.
func (m *Machine) DetailURL(tutorID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(tutorID)
	if i < 0 {
		return "", apperror.NotFound("result item", tutorID)
	}
	u := strings.TrimSpace(m.st.Results[i].DetailURL)
	if u == "" {
		return "", apperror.ValidationFailed("url", "no detail page available for this tutor")
	}
	return u, nil
}

// Wait blocks until the latest detail load resolves or ctx is done.
func (m *Machine) Wait(ctx context.Context) error {
	m.mu.Lock()
	pending := m.pending
	m.mu.Unlock()

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

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.st
	s.Results = slices.Clone(m.st.Results)
	s.Detail.Sentences = slices.Clone(m.st.Detail.Sentences)
	return s
}

// Close stops detail loads and waits for them to exit.
func (m *Machine) Close() {
	m.cancel()
	m.wg.Wait()
}

// indexOf must be called with m.mu held.
func (m *Machine) indexOf(tutorID string) int {
	return slices.IndexFunc(m.st.Results, func(it model.ResultItem) bool { return it.TutorID == tutorID })
}
