package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/auth"
	"github.com/sakif/mentorlink/internal/model"
	"github.com/sakif/mentorlink/internal/recommend"
	"github.com/sakif/mentorlink/internal/selector"
	"github.com/sakif/mentorlink/internal/view"
)

// ReviewSubmitter is the part of service.ReviewService the review form uses.
type ReviewSubmitter interface {
	Submit(ctx context.Context, userID string, r model.ReviewSubmission) (string, error)
}

// UserHandler serves the recommendation view and the review form.
//
// VIEW STATE:
// The page's selection and results live in a view.Workspace, not in the
// request. Every form carries the workspace id in a hidden "view" field;
// a missing or expired id opens a fresh workspace. Successful POSTs
// redirect back to GET /user?view=<id>, which renders the workspace.
type UserHandler struct {
	views    *view.Registry
	reviews  ReviewSubmitter
	sessions auth.SessionReader
	pages    *Renderer
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(views *view.Registry, reviews ReviewSubmitter, sessions auth.SessionReader, pages *Renderer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		views:    views,
		reviews:  reviews,
		sessions: sessions,
		pages:    pages,
		logger:   logger,
	}
}

type userPage struct {
	layout
	View      string
	Selection selector.Selection
	State     recommend.State
}

// workspace finds the workspace named by the "view" form or query value.
func (h *UserHandler) workspace(r *http.Request) *view.Workspace {
	if ws, ok := h.views.Get(r.FormValue("view")); ok {
		return ws
	}
	return h.views.Open(r.Context())
}

func (h *UserHandler) show(w http.ResponseWriter, r *http.Request, ws *view.Workspace, status int, errMsg string) {
	h.pages.render(w, status, pageUser, userPage{
		layout:    layout{Title: "Find a mentor", Session: h.sessions.Current(), Error: errMsg},
		View:      ws.ID,
		Selection: ws.Chain.Snapshot(),
		State:     ws.Machine.Snapshot(),
	})
}

// back is the redirect after a successful action on ws.
func back(w http.ResponseWriter, r *http.Request, ws *view.Workspace) {
	seeOther(w, r, auth.UserHome+"?view="+url.QueryEscape(ws.ID))
}

// fail re-renders the view with err, unless the client went away while we
// were waiting, in which case nobody is there to read the page.
func (h *UserHandler) fail(w http.ResponseWriter, r *http.Request, ws *view.Workspace, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return
	}
	h.show(w, r, ws, statusFor(err), messageFor(err))
}

// HandleView renders the recommendation view.
//
// HTTP: GET /user?view=<id>
func (h *UserHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if r.URL.Query().Get("view") != ws.ID {
		back(w, r, ws)
		return
	}
	h.show(w, r, ws, http.StatusOK, "")
}

// HandleInstitution selects the primary value and waits for its
// departments, so the redirected page already shows them.
// An unknown institution is reported through the selection's own message.
//
// HTTP: POST /user/institution
func (h *UserHandler) HandleInstitution(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.Chain.SetPrimary(r.PostFormValue("institution"))
	if err := ws.Chain.Wait(r.Context()); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	back(w, r, ws)
}

// HandleDepartment selects the secondary value.
//
// HTTP: POST /user/department
func (h *UserHandler) HandleDepartment(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if err := ws.Chain.SetSecondary(r.PostFormValue("department")); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	back(w, r, ws)
}

// HandleRecommend submits the query with the current selection.
//
// HTTP: POST /user/recommend
func (h *UserHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if err := ws.Machine.Submit(r.Context(), r.PostFormValue("query"), ws.Chain); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	back(w, r, ws)
}

// HandleBack returns from the result list to the form.
//
// HTTP: POST /user/back
func (h *UserHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if err := ws.Machine.Back(); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	back(w, r, ws)
}

// HandleExpand opens one result's review panel and waits for its reviews.
//
// HTTP: POST /user/expand
func (h *UserHandler) HandleExpand(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if _, err := ws.Machine.Expand(r.PostFormValue("tutor_id")); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	if err := ws.Machine.Wait(r.Context()); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	back(w, r, ws)
}

// HandleCollapse closes the open review panel.
//
// HTTP: POST /user/collapse
func (h *UserHandler) HandleCollapse(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if err := ws.Machine.Collapse(); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	back(w, r, ws)
}

// HandleDetail sends the browser to a tutor's external profile page.
//
// HTTP: GET /user/tutors/{id}/detail?view=<id>
func (h *UserHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	target, err := ws.Machine.DetailURL(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, ws, err)
		return
	}
	seeOther(w, r, target)
}

type reviewPage struct {
	layout
	Form model.ReviewSubmission
}

// HandleReviewForm shows the review form.
//
// HTTP: GET /user/submit-review
func (h *UserHandler) HandleReviewForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, http.StatusOK, pageReview, reviewPage{
		layout: layout{Title: "Write a review", Session: h.sessions.Current()},
	})
}

// HandleSubmitReview submits a review on behalf of the logged-in user.
// The author is always the session identity, never a form field.
//
// HTTP: POST /user/submit-review
func (h *UserHandler) HandleSubmitReview(w http.ResponseWriter, r *http.Request) {
	rec := h.sessions.Current()
	form := model.ReviewSubmission{
		Name:           r.PostFormValue("name"),
		University:     r.PostFormValue("university"),
		Department:     r.PostFormValue("department"),
		Academic:       r.PostFormValue("academic"),
		Responsibility: r.PostFormValue("responsibility"),
		Character:      r.PostFormValue("character"),
	}

	if _, err := h.reviews.Submit(r.Context(), rec.ID(), form); err != nil {
		if !errors.Is(err, apperror.ErrValidation) {
			h.logger.Warn("review submission failed", slog.String("error", err.Error()))
		}
		h.pages.render(w, statusFor(err), pageReview, reviewPage{
			layout: layout{Title: "Write a review", Session: rec, Error: messageFor(err)},
			Form:   form,
		})
		return
	}

	seeOther(w, r, auth.UserHome)
}
