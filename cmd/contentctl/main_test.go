package main

import (
	"path/filepath"
	"testing"

	"ContentFlow/internal/model"
	"ContentFlow/internal/session"
)

func TestSessionFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	user := model.PublicUser{ID: "u1", Email: "a@example.com", Role: model.RoleUser}

	if st := loadSession(path); st.Phase != session.Anonymous {
		t.Fatalf("missing file = %v", st.Phase)
	}
	if err := saveSession(path, session.Restore("tok", user)); err != nil {
		t.Fatal(err)
	}
	st := loadSession(path)
	if st.Phase != session.Authenticated || st.Token != "tok" || st.User != user {
		t.Errorf("restored = %+v", st)
	}

	if err := saveSession(path, session.New()); err != nil {
		t.Fatal(err)
	}
	if st = loadSession(path); st.Phase != session.Anonymous {
		t.Errorf("after logout = %+v", st)
	}
	if err := saveSession(path, session.New()); err != nil {
		t.Errorf("removing twice: %v", err)
	}
}

func TestNeed(t *testing.T) {
	if err := need([]string{"a"}, 2, "<x> <y>"); err == nil {
		t.Error("expected error")
	}
	if err := need([]string{"a", "b"}, 2, "<x> <y>"); err != nil {
		t.Error(err)
	}
}
