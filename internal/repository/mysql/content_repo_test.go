package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ContentFlow/internal/model"
	"ContentFlow/internal/repository"
)

func newMockRepo(t *testing.T) (*ContentRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysqldriver.New(mysqldriver.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return NewContentRepository(db), mock
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"hello":      "hello",
		"100%":       `100\%`,
		"snake_case": `snake\_case`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestList(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `contents` WHERE created_by = \\? AND status = \\?").
		WithArgs("u1", model.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("SELECT \\* FROM `contents` WHERE created_by = \\? AND status = \\? ORDER BY created_at DESC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "created_by", "created_at"}).
			AddRow("c1", "Hello", "pending", "u1", created))

	list, total, err := repo.List(context.Background(), repository.ListQuery{
		OwnerID: "u1",
		Status:  model.StatusPending,
		Offset:  10,
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 11 || len(list) != 1 || list[0].ID != "c1" || list[0].CreatedBy != "u1" {
		t.Errorf("total=%d list=%+v", total, list)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDecide(t *testing.T) {
	repo, mock := newMockRepo(t)
	by := "admin"
	at := time.Date(2025, time.March, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `contents` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `contents` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "created_by", "approved_by", "approved_at"}).
			AddRow("c1", "Hello", "approved", "u1", by, at))

	c, err := repo.Decide(context.Background(), "c1", repository.Decision{
		Status:     model.StatusApproved,
		ApprovedBy: by,
		ApprovedAt: at,
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if c.Status != model.StatusApproved || c.ApprovedBy == nil || *c.ApprovedBy != by {
		t.Errorf("decided = %+v", c)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDecide_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `contents` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `contents` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Decide(context.Background(), "missing", repository.Decision{Status: model.StatusRejected})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCountByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM `contents` GROUP BY").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("approved", 3).
			AddRow("rejected", 2))

	sc, err := repo.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if sc.Pending != 4 || sc.Approved != 3 || sc.Rejected != 2 {
		t.Errorf("counts = %+v", sc)
	}
	if sc.Total != sc.Pending+sc.Approved+sc.Rejected {
		t.Errorf("total %d does not equal the sum of statuses", sc.Total)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCountByStatus_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM `contents`").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	sc, err := repo.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if sc != (model.StatusCounts{}) {
		t.Errorf("counts = %+v, want zero", sc)
	}
}

func TestMonthlySince(t *testing.T) {
	repo, mock := newMockRepo(t)
	since := time.Date(2024, time.September, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE created_at >= \\? GROUP BY YEAR\\(created_at\\), MONTH\\(created_at\\), status ORDER BY year ASC, month ASC, status ASC").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"year", "month", "status", "count"}).
			AddRow(2024, 12, "approved", 2).
			AddRow(2024, 12, "pending", 1).
			AddRow(2025, 1, "rejected", 5))

	stats, err := repo.MonthlySince(context.Background(), since)
	if err != nil {
		t.Fatalf("MonthlySince: %v", err)
	}
	want := []model.MonthlyStat{
		{ID: model.MonthKey{Year: 2024, Month: 12, Status: model.StatusApproved}, Count: 2},
		{ID: model.MonthKey{Year: 2024, Month: 12, Status: model.StatusPending}, Count: 1},
		{ID: model.MonthKey{Year: 2025, Month: 1, Status: model.StatusRejected}, Count: 5},
	}
	if len(stats) != len(want) {
		t.Fatalf("stats = %+v", stats)
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecentDecided(t *testing.T) {
	repo, mock := newMockRepo(t)
	newer := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery("SELECT \\* FROM `contents` WHERE status IN \\(\\?,\\?\\) ORDER BY approved_at DESC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "approved_at"}).
			AddRow("c2", "rejected", newer).
			AddRow("c1", "approved", older))

	list, err := repo.RecentDecided(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentDecided: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c2" || list[1].ID != "c1" {
		t.Errorf("list = %+v", list)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
