package model

import "testing"

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"admin":   RoleAdmin,
		" ADMIN ": RoleAdmin,
		"user":    RoleUser,
		"":        RoleUser,
		"root":    RoleUser,
	}
	for in, want := range tests {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		name string
		rec  SessionRecord
		want bool
	}{
		{"zero value", SessionRecord{}, true},
		{"authenticated user", Authenticated("u1", RoleUser), true},
		{"authenticated admin", Authenticated("a1", RoleAdmin), true},
		{"no identity", SessionRecord{Authenticated: true, Role: RoleUser}, true},
		{"admin without identity", SessionRecord{Authenticated: true, Role: RoleAdmin}, true},
		{"blank identity", Authenticated(" ", RoleUser), true},
		{"nested role differs", SessionRecord{Authenticated: true, Identity: &Identity{Identity: "a1", Role: RoleUser}, Role: RoleAdmin}, true},
		{"unknown role", SessionRecord{Authenticated: true, Role: Role("root")}, false},
		{"no role", Authenticated("u1", RoleNone), false},
		{"logged out with role", SessionRecord{Role: RoleUser}, false},
		{"logged out with identity", SessionRecord{Identity: &Identity{Identity: "u1"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.WellFormed(); got != tt.want {
				t.Errorf("WellFormed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClone_Independent(t *testing.T) {
	a := Authenticated("u1", RoleUser)
	b := a.Clone()
	b.Identity.Identity = "u2"
	if a.ID() != "u1" {
		t.Errorf("Clone shares Identity: a.ID() = %q", a.ID())
	}
}
