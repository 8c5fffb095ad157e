package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ContentFlow/internal/model"
	"ContentFlow/internal/pkg"
)

type EventType string

const (
	EventSubmitted EventType = "content.submitted"
	EventApproved  EventType = "content.approved"
	EventRejected  EventType = "content.rejected"
)

// ModerationEvent 内容提交/审核事件
type ModerationEvent struct {
	Type       EventType    `json:"type"`
	ContentID  string       `json:"contentId"`
	Title      string       `json:"title"`
	Status     model.Status `json:"status"`
	OwnerID    string       `json:"ownerId"`
	OwnerEmail string       `json:"ownerEmail,omitempty"`
	ActorID    string       `json:"actorId"`
	At         time.Time    `json:"at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev ModerationEvent) error
}

func decisionEvent(status model.Status) EventType {
	if status == model.StatusApproved {
		return EventApproved
	}
	return EventRejected
}

// LogPublisher 默认实现，只打日志
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, ev ModerationEvent) error {
	p.Logger.InfoContext(ctx, "moderation event",
		slog.String("type", string(ev.Type)),
		slog.String("content_id", ev.ContentID),
		slog.String("status", string(ev.Status)),
		slog.String("actor_id", ev.ActorID),
	)
	return nil
}

// KafkaPublisher 以 contentID 为 key 写入 kafka
type KafkaPublisher struct {
	Producer *pkg.KafkaProducer
}

func (p KafkaPublisher) Publish(ctx context.Context, ev ModerationEvent) error {
	return p.Producer.SendJSON(ctx, ev.ContentID, ev)
}

// MailNotifier 审核结束后给提交者发邮件，提交事件忽略
type MailNotifier struct {
	Config pkg.SMTPConfig
	Send   func(cfg pkg.SMTPConfig, to, subject, body string) error
}

func NewMailNotifier(cfg pkg.SMTPConfig) MailNotifier {
	return MailNotifier{Config: cfg, Send: pkg.SendEmail}
}

func (n MailNotifier) Publish(_ context.Context, ev ModerationEvent) error {
	if ev.Type == EventSubmitted || ev.OwnerEmail == "" {
		return nil
	}
	subject, body := pkg.DecisionEmail(ev.Title, string(ev.Status))
	return n.Send(n.Config, ev.OwnerEmail, subject, body)
}

// MultiPublisher 依次投递，所有错误合并返回
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, ev ModerationEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ModerationRecorder 业务指标
type ModerationRecorder interface {
	Submitted()
	Decided(status model.Status)
}

type nopRecorder struct{}

func (nopRecorder) Submitted() {}
func (nopRecorder) Decided(model.Status) {}
