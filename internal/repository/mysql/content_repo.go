package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"ContentFlow/internal/model"
	"ContentFlow/internal/repository"
)

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) Create(ctx context.Context, c *model.Content) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

// escapeLike 转义 LIKE 通配符，关键字按字面匹配
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ContentRepository) filtered(ctx context.Context, q repository.ListQuery) *gorm.DB {
	tx := r.DB.WithContext(ctx).Model(&model.Content{})
	if q.OwnerID != "" {
		tx = tx.Where("created_by = ?", q.OwnerID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Keyword != "" {
		like := "%" + escapeLike(strings.ToLower(q.Keyword)) + "%"
		tx = tx.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	return tx
}

// List 基础分页查询，按 created_at 倒序
func (r *ContentRepository) List(ctx context.Context, q repository.ListQuery) ([]model.Content, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Content
	err := r.filtered(ctx, q).
		Order("created_at DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&list).Error
	return list, total, err
}

// Decide 单条 UPDATE，后写覆盖前写
func (r *ContentRepository) Decide(ctx context.Context, id string, d repository.Decision) (*model.Content, error) {
	err := r.DB.WithContext(ctx).Model(&model.Content{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      d.Status,
			"approved_by": d.ApprovedBy,
			"approved_at": d.ApprovedAt,
		}).Error
	if err != nil {
		return nil, err
	}

	var c model.Content
	if err = r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContentRepository) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	var rows []struct {
		Status model.Status
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Content{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return model.StatusCounts{}, err
	}

	var sc model.StatusCounts
	for _, row := range rows {
		sc.Total += row.Count
		switch row.Status {
		case model.StatusPending:
			sc.Pending = row.Count
		case model.StatusApproved:
			sc.Approved = row.Count
		case model.StatusRejected:
			sc.Rejected = row.Count
		}
	}
	return sc, nil
}

func (r *ContentRepository) MonthlySince(ctx context.Context, since time.Time) ([]model.MonthlyStat, error) {
	var rows []struct {
		Year   int
		Month  int
		Status model.Status
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Content{}).
		Select("YEAR(created_at) AS year, MONTH(created_at) AS month, status, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("YEAR(created_at), MONTH(created_at), status").
		Order("year ASC, month ASC, status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]model.MonthlyStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, model.MonthlyStat{
			ID:    model.MonthKey{Year: row.Year, Month: row.Month, Status: row.Status},
			Count: row.Count,
		})
	}
	return stats, nil
}

func (r *ContentRepository) RecentDecided(ctx context.Context, limit int) ([]model.Content, error) {
	var list []model.Content
	err := r.DB.WithContext(ctx).
		Where("status IN ?", []model.Status{model.StatusApproved, model.StatusRejected}).
		Order("approved_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
