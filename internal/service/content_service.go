package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"ContentFlow/internal/model"
	"ContentFlow/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	RecentLimit  = 5

	TitleMinLen       = 3
	TitleMaxLen       = 100
	DescriptionMinLen = 10
	DescriptionMaxLen = 1000

	statsWindowMonths = 6
)

type ContentService struct {
	contents repository.ContentStore
	emails   *EmailResolver
	events   EventPublisher
	recorder ModerationRecorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type ContentOption func(*ContentService)

func WithEvents(p EventPublisher) ContentOption {
	return func(s *ContentService) { s.events = p }
}

func WithRecorder(r ModerationRecorder) ContentOption {
	return func(s *ContentService) { s.recorder = r }
}

func WithClock(now func() time.Time) ContentOption {
	return func(s *ContentService) { s.now = now }
}

func NewContentService(contents repository.ContentStore, emails *EmailResolver, logger *slog.Logger, opts ...ContentOption) *ContentService {
	s := &ContentService{
		contents: contents,
		emails:   emails,
		recorder: nopRecorder{},
		logger:   logger.With(slog.String("component", "content_service")),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.events == nil {
		s.events = LogPublisher{Logger: s.logger}
	}
	return s
}

// ListParams 列表查询参数，page/limit 已由 handler 解析为整数
type ListParams struct {
	Page    int
	Limit   int
	Status  string
	Keyword string
}

// NormalizePage page < 1 取 1；limit < 1 取默认值，其余原样使用
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// BuildPagination totalPages = ceil(total/limit)
func BuildPagination(page, limit int, total int64) model.Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return model.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// ownerScope 普通用户只能看到自己的内容，管理员不限制
func ownerScope(caller model.Identity) (string, error) {
	switch caller.Role {
	case model.RoleAdmin:
		return "", nil
	case model.RoleUser:
		return caller.ID, nil
	default:
		return "", Forbidden("Access denied")
	}
}

func (s *ContentService) List(ctx context.Context, caller model.Identity, p ListParams) (*model.ContentPage, error) {
	owner, err := ownerScope(caller)
	if err != nil {
		return nil, err
	}

	page, limit := NormalizePage(p.Page, p.Limit)
	q := repository.ListQuery{
		OwnerID: owner,
		Keyword: p.Keyword,
		Offset:  (page - 1) * limit,
		Limit:   limit,
	}
	if st, ok := model.ParseStatus(p.Status); ok {
		q.Status = st
	}

	const failMsg = "Server error fetching content"
	list, total, err := s.contents.List(ctx, q)
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, Internal(failMsg, err)
	}

	return &model.ContentPage{
		Content:    views,
		Pagination: BuildPagination(page, limit, total),
	}, nil
}

// ValidateSubmission 返回去掉首尾空白后的 title / description
func ValidateSubmission(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" || description == "" {
		return "", "", Validation("Title and description are required")
	}
	if n := utf8.RuneCountInString(title); n < TitleMinLen || n > TitleMaxLen {
		return "", "", Validation("Title must be between 3 and 100 characters")
	}
	if n := utf8.RuneCountInString(description); n < DescriptionMinLen || n > DescriptionMaxLen {
		return "", "", Validation("Description must be between 10 and 1000 characters")
	}
	return title, description, nil
}

func (s *ContentService) Create(ctx context.Context, caller model.Identity, title, description string) (*model.ContentView, error) {
	if caller.Role != model.RoleUser {
		return nil, Forbidden("Access denied")
	}
	title, description, err := ValidateSubmission(title, description)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &model.Content{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Status:      model.StatusPending,
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.contents.Create(ctx, c); err != nil {
		return nil, Internal("Server error creating content", err)
	}
	s.recorder.Submitted()
	if s.emails != nil {
		s.emails.Remember(caller.ID, caller.Email)
	}

	view := toView(c, map[string]string{caller.ID: caller.Email})
	s.publish(ctx, ModerationEvent{
		Type:       EventSubmitted,
		ContentID:  c.ID,
		Title:      c.Title,
		Status:     c.Status,
		OwnerID:    c.CreatedBy,
		OwnerEmail: caller.Email,
		ActorID:    caller.ID,
		At:         now,
	})
	return &view, nil
}

// Decide 审核内容。不做幂等保护，重复调用以最后一次为准
func (s *ContentService) Decide(ctx context.Context, caller model.Identity, id string, status model.Status) (*model.ContentView, error) {
	if !status.IsDecision() {
		return nil, Validation("Invalid decision")
	}
	if !caller.IsAdmin() {
		return nil, Forbidden("Access denied")
	}

	failMsg := "Server error approving content"
	if status == model.StatusRejected {
		failMsg = "Server error rejecting content"
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NotFound("Content not found")
	}

	now := s.now().UTC()
	c, err := s.contents.Decide(ctx, id, repository.Decision{
		Status:     status,
		ApprovedBy: caller.ID,
		ApprovedAt: now,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("Content not found")
	}
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	s.recorder.Decided(status)

	views, err := s.views(ctx, []model.Content{*c})
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	view := views[0]

	ev := ModerationEvent{
		Type:      decisionEvent(status),
		ContentID: c.ID,
		Title:     c.Title,
		Status:    c.Status,
		OwnerID:   c.CreatedBy,
		ActorID:   caller.ID,
		At:        now,
	}
	if view.CreatedBy != nil {
		ev.OwnerEmail = view.CreatedBy.Email
	}
	s.publish(ctx, ev)
	return &view, nil
}

// StatsWindowStart 当前时间往前推 6 个自然月
func StatsWindowStart(now time.Time) time.Time {
	return now.UTC().AddDate(0, -statsWindowMonths, 0)
}

func (s *ContentService) Stats(ctx context.Context, caller model.Identity) (*model.Stats, error) {
	if !caller.IsAdmin() {
		return nil, Forbidden("Access denied")
	}

	const failMsg = "Server error fetching statistics"
	counts, err := s.contents.CountByStatus(ctx)
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	monthly, err := s.contents.MonthlySince(ctx, StatsWindowStart(s.now()))
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	if monthly == nil {
		monthly = []model.MonthlyStat{}
	}

	return &model.Stats{
		TotalSubmissions: counts.Total,
		Approved:         counts.Approved,
		Rejected:         counts.Rejected,
		Pending:          counts.Pending,
		MonthlyStats:     monthly,
	}, nil
}

// Recent 最近审核过的 5 条内容，按 approvedAt 倒序
func (s *ContentService) Recent(ctx context.Context, caller model.Identity) ([]model.ContentView, error) {
	if !caller.IsAdmin() {
		return nil, Forbidden("Access denied")
	}

	const failMsg = "Server error fetching recent activity"
	list, err := s.contents.RecentDecided(ctx, RecentLimit)
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	return views, nil
}

// publish 事件投递失败只记录日志，不影响已经成功的写操作
func (s *ContentService) publish(ctx context.Context, ev ModerationEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish moderation event failed",
			slog.String("type", string(ev.Type)),
			slog.String("content_id", ev.ContentID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ContentService) views(ctx context.Context, list []model.Content) ([]model.ContentView, error) {
	out := make([]model.ContentView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(list)*2)
	for i := range list {
		ids = append(ids, list[i].CreatedBy)
		if list[i].ApprovedBy != nil {
			ids = append(ids, *list[i].ApprovedBy)
		}
	}
	emails := map[string]string{}
	if s.emails != nil {
		var err error
		if emails, err = s.emails.Resolve(ctx, ids); err != nil {
			return nil, err
		}
	}

	for i := range list {
		out = append(out, toView(&list[i], emails))
	}
	return out, nil
}

func toView(c *model.Content, emails map[string]string) model.ContentView {
	v := model.ContentView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		ApprovedAt:  c.ApprovedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if email, ok := emails[c.CreatedBy]; ok {
		v.CreatedBy = &model.UserRef{ID: c.CreatedBy, Email: email}
	}
	if c.ApprovedBy != nil {
		if email, ok := emails[*c.ApprovedBy]; ok {
			v.ApprovedBy = &model.UserRef{ID: *c.ApprovedBy, Email: email}
		}
	}
	return v
}
