package service

import (
	"context"
	"errors"
	"testing"

	"ContentFlow/internal/model"
	"ContentFlow/internal/pkg"
)

func TestMailNotifier(t *testing.T) {
	var sentTo []string
	n := MailNotifier{
		Config: pkg.SMTPConfig{Host: "smtp.example.com"},
		Send: func(_ pkg.SMTPConfig, to, subject, _ string) error {
			sentTo = append(sentTo, to)
			if subject == "" {
				t.Error("empty subject")
			}
			return nil
		},
	}
	ctx := context.Background()

	_ = n.Publish(ctx, ModerationEvent{Type: EventSubmitted, OwnerEmail: "a@example.com"})
	_ = n.Publish(ctx, ModerationEvent{Type: EventApproved, Status: model.StatusApproved})
	_ = n.Publish(ctx, ModerationEvent{Type: EventRejected, Status: model.StatusRejected, OwnerEmail: "b@example.com"})

	if len(sentTo) != 1 || sentTo[0] != "b@example.com" {
		t.Errorf("sent to %v", sentTo)
	}
}

func TestMultiPublisher(t *testing.T) {
	first := &recordingPublisher{err: errors.New("first")}
	second := &recordingPublisher{}
	m := MultiPublisher{first, second}

	err := m.Publish(context.Background(), ModerationEvent{Type: EventApproved})
	if err == nil || err.Error() != "first" {
		t.Errorf("err = %v", err)
	}
	if len(second.events) != 1 {
		t.Error("later publishers must still receive the event")
	}
}

func TestDecisionEvent(t *testing.T) {
	if decisionEvent(model.StatusApproved) != EventApproved || decisionEvent(model.StatusRejected) != EventRejected {
		t.Error("unexpected event mapping")
	}
}

func TestEmailResolver_Caches(t *testing.T) {
	users := testUsers()
	r := NewEmailResolver(users, 0, 0)
	ctx := context.Background()

	got, err := r.Resolve(ctx, []string{alice.ID, alice.ID, "", "ghost"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got[alice.ID] != alice.Email {
		t.Errorf("alice = %q", got[alice.ID])
	}
	if _, ok := got["ghost"]; ok {
		t.Error("unknown id should be absent")
	}
	if users.emailCalls != 1 {
		t.Fatalf("calls = %d", users.emailCalls)
	}

	if _, err = r.Resolve(ctx, []string{alice.ID}); err != nil {
		t.Fatal(err)
	}
	if users.emailCalls != 1 {
		t.Errorf("cache miss: calls = %d", users.emailCalls)
	}

	r.Remember(admin.ID, admin.Email)
	if _, err = r.Resolve(ctx, []string{admin.ID}); err != nil {
		t.Fatal(err)
	}
	if users.emailCalls != 1 {
		t.Errorf("remembered id went to the store: calls = %d", users.emailCalls)
	}
}
