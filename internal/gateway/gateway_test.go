package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/model"
)

// ============================================================
// Test helpers
// ============================================================

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// deadClient points at a server that has already shut down.
func deadClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return NewClient(url, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	return m
}

func appMessage(err error) string {
	var ae *apperror.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return ""
}

// ============================================================
// Error message derivation
// ============================================================

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"error field wins", map[string]string{"error": "bad password", "message": "ignored"}, "bad password"},
		{"message field", map[string]string{"message": "account locked"}, "account locked"},
		{"fallback", map[string]string{}, "login failed, check your credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, tt.body)
			})

			_, err := NewAuthGateway(c).Login(context.Background(), "u1", "pw", false)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrGateway)
			assert.Equal(t, tt.want, appMessage(err))
		})
	}
}

func TestFailure_NonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	})

	_, err := NewRecommendationGateway(c).Recommend(context.Background(), "q", "All", "All")
	assert.Equal(t, "failed to get recommendations, please try again later", appMessage(err))
}

func TestFailure_Network(t *testing.T) {
	_, err := NewReviewGateway(deadClient(t)).TutorDetail(context.Background(), "t1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrGateway)
	assert.Equal(t, "failed to load tutor reviews, please try again", appMessage(err))
}

// ============================================================
// Auth
// ============================================================

func TestLogin_User(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body := decodeBody(t, r)
		assert.Equal(t, "u1", body["user_id"])
		assert.Equal(t, "secret", body["password"])
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "user_id": "u1"})
	})

	res, err := NewAuthGateway(c).Login(context.Background(), "u1", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, "u1", res.Identity)
	assert.Equal(t, model.RoleUser, res.Role, "role defaults to user")
}

func TestLogin_UserIDFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"role": "admin"})
	})

	res, err := NewAuthGateway(c).Login(context.Background(), "typed-id", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, "typed-id", res.Identity)
	assert.Equal(t, model.RoleAdmin, res.Role)
}

func TestLogin_Admin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"admin_id": "root-1", "role": "user"})
	})

	res, err := NewAuthGateway(c).Login(context.Background(), "root", "pw", true)
	require.NoError(t, err)
	assert.Equal(t, "root-1", res.Identity)
	assert.Equal(t, model.RoleAdmin, res.Role, "admin login always yields admin")
}

func TestLogin_AdminFallbackMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := NewAuthGateway(c).Login(context.Background(), "root", "pw", true)
	assert.Equal(t, "admin login failed", appMessage(err))
}

func TestRegister(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
	})

	msg, err := NewAuthGateway(c).Register(context.Background(), "u9", "pw")
	require.NoError(t, err)
	assert.Equal(t, "registered", msg)
}

func TestLogout_EmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, NewAuthGateway(c).Logout(context.Background()))
}

// ============================================================
// Directory
// ============================================================

func directoryServer(hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{
			"universities": []map[string]any{
				{"name": "ZJU", "departments": []string{"CS", "Medicine"}},
				{"name": "PKU", "departments": []string{"Math"}},
			},
		})
	}
}

func TestDirectory_CachesInstitutions(t *testing.T) {
	var hits atomic.Int32
	g := NewDirectoryGateway(newTestClient(t, directoryServer(&hits)), time.Minute)
	ctx := context.Background()

	first, err := g.Institutions(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "ZJU", first[0].Name)

	// Mutating the returned slice must not leak into the cache.
	first[0].Departments[0] = "tampered"

	depts, err := g.Departments(ctx, "ZJU")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS", "Medicine"}, depts)
	assert.Equal(t, int32(1), hits.Load(), "second lookup should be served from cache")

	g.Invalidate()
	_, _ = g.Institutions(ctx)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDirectory_UnknownInstitution(t *testing.T) {
	var hits atomic.Int32
	g := NewDirectoryGateway(newTestClient(t, directoryServer(&hits)), time.Minute)

	_, err := g.Departments(context.Background(), "MIT")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDirectory_FailureNotCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"universities": []any{}})
	})
	g := NewDirectoryGateway(c, time.Minute)

	_, err := g.Institutions(context.Background())
	require.Error(t, err)

	list, err := g.Institutions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ============================================================
// Recommendation / Review
// ============================================================

func TestRecommend(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/get_recommendations", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, map[string]string{"query": "AI mentor", "university": "All", "department": "All"}, body)
		writeJSON(w, http.StatusOK, map[string]any{
			"recommend_result": []map[string]any{
				{"tutor_id": "t1", "name": "Li", "match_score": 0.92},
				{"tutor_id": "t2", "name": "Wang"},
			},
		})
	})

	items, err := NewRecommendationGateway(c).Recommend(context.Background(), "AI mentor", "All", "All")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0.92, items[0].MatchScore)
	assert.Equal(t, 0.0, items[1].MatchScore, "absent match_score decodes to 0")
}

func TestRecommend_MissingListIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	items, err := NewRecommendationGateway(c).Recommend(context.Background(), "q", "All", "All")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestTutorDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "t7", decodeBody(t, r)["tutor_id"])
		writeJSON(w, http.StatusOK, map[string]any{
			"tutor_id":         "t7",
			"name":             "Zhao",
			"review_sentences": []string{"Patient.", "Busy."},
			"review_features":  []any{map[string]int{"x": 1}},
		})
	})

	d, err := NewReviewGateway(c).TutorDetail(context.Background(), "t7")
	require.NoError(t, err)
	assert.Equal(t, "Zhao", d.Name)
	assert.Equal(t, []string{"Patient.", "Busy."}, d.ReviewSentences)
}

func TestSubmitReview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "u1", body["user_id"])
		assert.Equal(t, "kind", body["character"])
		writeJSON(w, http.StatusOK, map[string]string{"message": "thanks"})
	})

	msg, err := NewReviewGateway(c).Submit(context.Background(), model.ReviewSubmission{
		Name: "Li", University: "ZJU", Department: "CS",
		Academic: "strong", Responsibility: "high", Character: "kind", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "thanks", msg)
}

// ============================================================
// Admin
// ============================================================

func TestUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]string{{"user_id": "u1", "role": "user", "review_allowed": "True"}},
			"total":   1,
		})
	})

	users, err := NewAdminGateway(c).Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].CanReview())
}

func TestUsers_NotSuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "db down"})
	})

	_, err := NewAdminGateway(c).Users(context.Background())
	assert.Equal(t, "db down", appMessage(err))
}

func TestSetReviewPermission_Body(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "u1", body["target_user"])
		assert.Equal(t, "False", body["enable"])
		writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
	})

	msg, err := NewAdminGateway(c).SetReviewPermission(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "updated", msg)
}

func TestSetReviewPermission_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    map[string]string
		want    string
		wantErr error
	}{
		{"400 with text", 400, map[string]string{"error": "unknown user"}, "unknown user", apperror.ErrGateway},
		{"400 bare", 400, nil, "invalid request", apperror.ErrGateway},
		{"403", 403, map[string]string{"error": "nope"}, "permission denied", apperror.ErrForbidden},
		{"500 with colon", 500, map[string]string{"error": "IntegrityError: duplicate key"}, "server error: duplicate key", apperror.ErrGateway},
		{"500 no colon", 500, map[string]string{"error": "boom"}, "server error: unknown error", apperror.ErrGateway},
		{"other status", 418, nil, "request failed: 418", apperror.ErrGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := NewAdminGateway(c).SetReviewPermission(context.Background(), "u1", true)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.want, appMessage(err))
		})
	}
}

func TestSetReviewPermission_Network(t *testing.T) {
	_, err := NewAdminGateway(deadClient(t)).SetReviewPermission(context.Background(), "u1", true)
	assert.Equal(t, "no response, check the network connection", appMessage(err))
}

func TestUserProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u3", decodeBody(t, r)["user_id"])
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{
				"user_id": "u3",
				"reviews": []map[string]string{{"sentence_id": "s1", "review_sentence": "Great"}},
			},
		})
	})

	p, err := NewAdminGateway(c).UserProfile(context.Background(), "u3")
	require.NoError(t, err)
	assert.Equal(t, "u3", p.UserID)
	require.Len(t, p.Reviews, 1)
	assert.Equal(t, "Great", p.Reviews[0].ReviewSentence)
}

func TestUserProfile_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admins only"})
	})
	_, err := NewAdminGateway(c).UserProfile(context.Background(), "u3")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such user"})
	})
	_, err = NewAdminGateway(c).UserProfile(context.Background(), "u3")
	assert.Equal(t, "failed to load user data: no such user", appMessage(err))
}

func TestPlatformStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"memory_usage": "210 MB",
			"review_count": 40,
			"schools":      map[string]int{"departments": 12, "total": 3},
			"user_count":   8,
		})
	})

	s, err := NewAdminGateway(c).PlatformStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "210 MB", s.MemoryUsage)
	assert.Equal(t, 12, s.Schools.Departments)
	assert.Equal(t, 8, s.UserCount)
}

func TestDeleteReviewAndProfessorUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/delete_review":
			assert.Equal(t, "s9", decodeBody(t, r)["sentence_id"])
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
		case "/admin/professor_update":
			assert.Equal(t, "https://x.edu/li", decodeBody(t, r)["professor_url"])
			writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
		default:
			http.NotFound(w, r)
		}
	})
	g := NewAdminGateway(c)

	msg, err := g.DeleteReview(context.Background(), "s9")
	require.NoError(t, err)
	assert.Equal(t, "deleted", msg)

	msg, err = g.UpdateProfessor(context.Background(), model.ProfessorRecord{ProfessorURL: "https://x.edu/li"})
	require.NoError(t, err)
	assert.Equal(t, "saved", msg)
}
