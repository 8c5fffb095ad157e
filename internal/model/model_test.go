package model

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"admin", RoleAdmin, false},
		{"Admin", "", true},
		{"", "", true},
		{"moderator", "", true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseRole(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected"} {
		if _, ok := ParseStatus(s); !ok {
			t.Errorf("ParseStatus(%q) not ok", s)
		}
	}
	for _, s := range []string{"", "all", "PENDING", "deleted"} {
		if _, ok := ParseStatus(s); ok {
			t.Errorf("ParseStatus(%q) should be rejected", s)
		}
	}
}

func TestStatusIsDecision(t *testing.T) {
	if StatusPending.IsDecision() {
		t.Error("pending must not be a decision")
	}
	if !StatusApproved.IsDecision() || !StatusRejected.IsDecision() {
		t.Error("approved and rejected are decisions")
	}
}
