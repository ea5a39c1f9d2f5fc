package auth

import (
	"testing"

	"github.com/sakif/mentorlink/internal/model"
)

// newTestTokenService uses a fixed, known secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	rec := model.Authenticated("u-42", model.RoleAdmin)

	token, err := ts.Seal(rec)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	got, err := ts.Open(token)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !got.Authenticated || got.ID() != "u-42" || got.Role != model.RoleAdmin {
		t.Errorf("Open() = %+v, want admin u-42", got)
	}
	if !got.WellFormed() {
		t.Error("opened record should be well formed")
	}
}

func TestOpen_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Seal(model.Authenticated("u-1", model.RoleUser))

	tampered := token[:len(token)-3] + "xxx"

	if _, err := ts.Open(tampered); err == nil {
		t.Fatal("Open() should reject a tampered token")
	}
}

func TestOpen_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!")
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")

	token, _ := ts1.Seal(model.Authenticated("u-1", model.RoleUser))

	if _, err := ts2.Open(token); err == nil {
		t.Fatal("Open() should fail when using a different secret")
	}
}

func TestOpen_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt", `{"authenticated":true}`} {
		if _, err := ts.Open(in); err == nil {
			t.Errorf("Open(%q) should return an error", in)
		}
	}
}
