package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flownco2789-ui/codeai/internal/models"
)

func TestReportRepositoryCreateWritesOutbox(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_outbox")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	report := &models.Report{EnrollmentID: 7, InstructorID: 11, Type: models.ReportTypeProject, Title: "week 1"}
	err := repo.Create(context.Background(), report, func(id int64) []models.OutboxEvent {
		return []models.OutboxEvent{{EventType: models.EventReportSubmitted, TargetKind: models.OutboxTargetRoles,
			Payload: models.JSONMap{"reportId": id}}}
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.ID)
	assert.Equal(t, models.ReportPending, report.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE status = $1 AND enrollment_id = $2 ORDER BY id DESC LIMIT 200")).
		WithArgs(models.ReportPending, int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "status"}).AddRow(int64(5), int64(7), "PENDING"))

	reports, err := repo.List(context.Background(), models.ReportFilter{Status: models.ReportPending, EnrollmentID: 7})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryReviewMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Review(context.Background(), 99, models.ReportApproved, nil, time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListApprovedOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE enrollment_id = $1 AND status = 'APPROVED' ORDER BY id DESC")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "status"}).
			AddRow(int64(9), int64(7), "APPROVED").
			AddRow(int64(5), int64(7), "APPROVED"))

	reports, err := repo.ListApproved(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, int64(9), reports[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
