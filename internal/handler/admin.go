package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mentorlink/internal/auth"
	"github.com/sakif/mentorlink/internal/model"
	"github.com/sakif/mentorlink/internal/service"
)

// AdminOperations is the part of service.AdminService the admin views use.
type AdminOperations interface {
	Users(ctx context.Context) ([]model.User, error)
	SetReviewPermission(ctx context.Context, userID string, enable bool) (string, error)
	ReviewPage(ctx context.Context, n int) (service.Page[model.Review], error)
	DeleteReview(ctx context.Context, sentenceID string) (string, error)
	UserProfile(ctx context.Context, userID string) (model.UserProfile, error)
	UpdateProfessor(ctx context.Context, p model.ProfessorRecord) (string, error)
	Monitor(ctx context.Context) (service.Monitor, error)
}

// Admin panels, selected with ?panel=.
const (
	panelProfessor  = "professor"
	panelEvaluation = "evaluation"
	panelUser       = "user"
	panelMonitor    = "monitor"
)

// AdminHandler serves the administrator console.
//
// Each action reloads only the panel it belongs to: deleting a review
// refreshes the review list, toggling a permission refreshes the user list.
type AdminHandler struct {
	admin    AdminOperations
	sessions auth.SessionReader
	pages    *Renderer
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin AdminOperations, sessions auth.SessionReader, pages *Renderer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		sessions: sessions,
		pages:    pages,
		logger:   logger,
	}
}

type adminPage struct {
	layout
	Panel     string
	Professor model.ProfessorRecord
	Users     []model.User
	Reviews   service.Page[model.Review]
	Monitor   service.Monitor
}

func (h *AdminHandler) newPage(panel string) adminPage {
	return adminPage{
		layout: layout{Title: "Administration", Session: h.sessions.Current()},
		Panel:  panel,
	}
}

// load fills the data of p.Panel. A load failure becomes the page's error
// unless the page already carries one from the action that led here.
func (h *AdminHandler) load(ctx context.Context, p *adminPage, page int) error {
	var err error
	switch p.Panel {
	case panelEvaluation:
		p.Reviews, err = h.admin.ReviewPage(ctx, page)
	case panelUser:
		p.Users, err = h.admin.Users(ctx)
	case panelMonitor:
		p.Monitor, err = h.admin.Monitor(ctx)
	}
	if err != nil {
		h.logger.Warn("admin panel failed to load", slog.String("panel", p.Panel), slog.String("error", err.Error()))
		if p.Error == "" {
			p.Error = messageFor(err)
		}
	}
	return err
}

func (h *AdminHandler) show(w http.ResponseWriter, r *http.Request, p adminPage, status, page int) {
	if err := h.load(r.Context(), &p, page); err != nil && status == http.StatusOK {
		status = statusFor(err)
	}
	h.pages.render(w, status, pageAdmin, p)
}

// HandleConsole renders one panel.
//
// HTTP: GET /admin?panel=professor|evaluation|user|monitor&page=<n>
func (h *AdminHandler) HandleConsole(w http.ResponseWriter, r *http.Request) {
	panel := r.URL.Query().Get("panel")
	switch panel {
	case panelProfessor, panelEvaluation, panelUser, panelMonitor:
	default:
		panel = panelProfessor
	}
	h.show(w, r, h.newPage(panel), http.StatusOK, pageNumber(r.URL.Query().Get("page")))
}

// HandleSaveProfessor adds or updates an advisor record. A failure keeps
// the submitted values in the form.
//
// HTTP: POST /admin/professor
func (h *AdminHandler) HandleSaveProfessor(w http.ResponseWriter, r *http.Request) {
	rec := model.ProfessorRecord{
		Name:           r.PostFormValue("name"),
		University:     r.PostFormValue("university"),
		Department:     r.PostFormValue("department"),
		Academic:       r.PostFormValue("academic"),
		Responsibility: r.PostFormValue("responsibility"),
		Character:      r.PostFormValue("character"),
		ProfessorURL:   r.PostFormValue("professor_url"),
	}

	p := h.newPage(panelProfessor)
	msg, err := h.admin.UpdateProfessor(r.Context(), rec)
	if err != nil {
		p.Error = messageFor(err)
		p.Professor = rec
		h.show(w, r, p, statusFor(err), 1)
		return
	}
	p.Notice = msg
	h.show(w, r, p, http.StatusOK, 1)
}

// HandleTogglePermission enables or disables a user's review permission.
//
// HTTP: POST /admin/users/{id}/permission  (form: enable=true|false)
func (h *AdminHandler) HandleTogglePermission(w http.ResponseWriter, r *http.Request) {
	enable, _ := strconv.ParseBool(r.PostFormValue("enable"))

	p := h.newPage(panelUser)
	msg, err := h.admin.SetReviewPermission(r.Context(), chi.URLParam(r, "id"), enable)
	if err != nil {
		p.Error = messageFor(err)
		h.show(w, r, p, statusFor(err), 1)
		return
	}
	p.Notice = msg
	h.show(w, r, p, http.StatusOK, 1)
}

// HandleDeleteReview removes one review and shows the same page of the list.
//
// HTTP: POST /admin/reviews/{id}/delete  (form: page=<n>)
func (h *AdminHandler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	page := pageNumber(r.PostFormValue("page"))

	p := h.newPage(panelEvaluation)
	msg, err := h.admin.DeleteReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		p.Error = messageFor(err)
		h.show(w, r, p, statusFor(err), page)
		return
	}
	p.Notice = msg
	h.show(w, r, p, http.StatusOK, page)
}

type adminUserPage struct {
	layout
	Profile model.UserProfile
}

// HandleUserDetail shows one user's information and reviews.
//
// HTTP: GET /admin/users/{id}
func (h *AdminHandler) HandleUserDetail(w http.ResponseWriter, r *http.Request) {
	data := adminUserPage{layout: layout{Title: "User", Session: h.sessions.Current()}}

	profile, err := h.admin.UserProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		data.Error = messageFor(err)
		h.pages.render(w, statusFor(err), pageAdminUser, data)
		return
	}
	data.Profile = profile
	h.pages.render(w, http.StatusOK, pageAdminUser, data)
}

// pageNumber parses a 1-based page number; anything unusable means page 1.
// Paginate clamps numbers past the end.
func pageNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
