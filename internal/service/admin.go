package service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/model"
)

// Admin panel constants.
const (
	// ReviewsPerPage is the page size of the evaluation panel.
	ReviewsPerPage = 10
	// MemoryTotalMB is the fixed capacity the monitor panel charts against.
	MemoryTotalMB = 512
)

// AdminBackend is the admin gateway as the service sees it.
type AdminBackend interface {
	Users(ctx context.Context) ([]model.User, error)
	SetReviewPermission(ctx context.Context, userID string, enable bool) (string, error)
	Reviews(ctx context.Context) ([]model.Review, error)
	DeleteReview(ctx context.Context, sentenceID string) (string, error)
	UserProfile(ctx context.Context, userID string) (model.UserProfile, error)
	UpdateProfessor(ctx context.Context, p model.ProfessorRecord) (string, error)
	PlatformStats(ctx context.Context) (model.PlatformStats, error)
}

// AdminService backs the administrator panels.
//
// Each operation refreshes only the data of its own panel. Deleting a
// review does not reset the user list, and so on.
type AdminService struct {
	backend   AdminBackend
	directory DirectoryCache
	logger    *slog.Logger
}

// DirectoryCache is the cached institution directory. A saved advisor
// record may add an institution or department, so the cache is dropped.
type DirectoryCache interface {
	Invalidate()
}

// NewAdminService creates the service. directory may be nil.
func NewAdminService(backend AdminBackend, directory DirectoryCache, logger *slog.Logger) *AdminService {
	return &AdminService{backend: backend, directory: directory, logger: logger}
}

// Users lists every account.
func (s *AdminService) Users(ctx context.Context) ([]model.User, error) {
	return s.backend.Users(ctx)
}

// SetReviewPermission allows or forbids a user to submit reviews.
func (s *AdminService) SetReviewPermission(ctx context.Context, userID string, enable bool) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperror.ValidationFailed("user_id", "please choose a user")
	}
	msg, err := s.backend.SetReviewPermission(ctx, userID, enable)
	if err != nil {
		return "", err
	}
	s.logger.Info("review permission changed", slog.String("user_id", userID), slog.Bool("enabled", enable))
	if msg == "" {
		if enable {
			msg = "review permission enabled"
		} else {
			msg = "review permission disabled"
		}
	}
	return msg, nil
}

// Page is one page of a list. Number is 1-based.
type Page[T any] struct {
	Items  []T
	Number int
	Pages  int
	Total  int
}

// HasPrev reports whether there is a page before this one.
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether there is a page after this one.
func (p Page[T]) HasNext() bool { return p.Number < p.Pages }

// Paginate slices items into pages of size and returns page number n,
// clamped into range. An empty list has one empty page.
func Paginate[T any](items []T, n, size int) Page[T] {
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	n = min(max(n, 1), pages)

	start := min((n-1)*size, total)
	end := min(start+size, total)
	return Page[T]{
		Items:  items[start:end],
		Number: n,
		Pages:  pages,
		Total:  total,
	}
}

// ReviewPage loads all reviews and returns one page of them.
func (s *AdminService) ReviewPage(ctx context.Context, n int) (Page[model.Review], error) {
	reviews, err := s.backend.Reviews(ctx)
	if err != nil {
		return Page[model.Review]{}, err
	}
	return Paginate(reviews, n, ReviewsPerPage), nil
}

// DeleteReview removes one review sentence.
func (s *AdminService) DeleteReview(ctx context.Context, sentenceID string) (string, error) {
	sentenceID = strings.TrimSpace(sentenceID)
	if sentenceID == "" {
		return "", apperror.ValidationFailed("sentence_id", "please select a review to delete")
	}
	msg, err := s.backend.DeleteReview(ctx, sentenceID)
	if err != nil {
		return "", err
	}
	s.logger.Info("review deleted", slog.String("sentence_id", sentenceID))
	if msg == "" {
		msg = "review deleted"
	}
	return msg, nil
}

// UserProfile loads a user with their reviews.
func (s *AdminService) UserProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.UserProfile{}, apperror.ValidationFailed("user_id", "please choose a user")
	}
	return s.backend.UserProfile(ctx, userID)
}

// UpdateProfessor validates and saves an advisor record.
func (s *AdminService) UpdateProfessor(ctx context.Context, p model.ProfessorRecord) (string, error) {
	trimAll(&p.Name, &p.University, &p.Department, &p.Academic, &p.Responsibility, &p.Character, &p.ProfessorURL)
	if err := validateStruct(p); err != nil {
		return "", err
	}
	msg, err := s.backend.UpdateProfessor(ctx, p)
	if err != nil {
		return "", err
	}
	if s.directory != nil {
		s.directory.Invalidate()
	}
	s.logger.Info("advisor record saved", slog.String("name", p.Name), slog.String("university", p.University))
	if msg == "" {
		msg = "advisor record saved"
	}
	return msg, nil
}

// Monitor is the platform monitor panel.
type Monitor struct {
	Stats       model.PlatformStats
	UsedMB      int
	FreeMB      int
	TotalMB     int
	UsedPercent int
}

var firstInt = regexp.MustCompile(`\d+`)

// ParseMemoryUsage reads the first integer in a memory usage string such as
// "210 MB" or "used: 96MB". No digits means 0.
func ParseMemoryUsage(s string) int {
	m := firstInt.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Monitor loads platform statistics and derives the memory figures.
func (s *AdminService) Monitor(ctx context.Context) (Monitor, error) {
	stats, err := s.backend.PlatformStats(ctx)
	if err != nil {
		return Monitor{}, err
	}

	used := ParseMemoryUsage(stats.MemoryUsage)
	return Monitor{
		Stats:       stats,
		UsedMB:      used,
		FreeMB:      max(MemoryTotalMB-used, 0),
		TotalMB:     MemoryTotalMB,
		UsedPercent: min(used*100/MemoryTotalMB, 100),
	}, nil
}
