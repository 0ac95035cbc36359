package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flownco2789-ui/codeai/internal/models"
)

func TestStudentApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentApplicationRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_applications")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_outbox")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app := &models.StudentApplication{Name: "Kim", Phone: "01012345678", Subjects: models.StringList{"Python"}, Mode: models.ModeRemote}
	var gotID int64
	err := repo.Create(context.Background(), app, func(id int64) []models.OutboxEvent {
		gotID = id
		return []models.OutboxEvent{{EventType: models.EventStudentApplicationCreated, TargetKind: models.OutboxTargetRoles}}
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), app.ID)
	assert.Equal(t, int64(3), gotID)
	assert.Equal(t, models.ApplicationSubmitted, app.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentApplicationRepositoryCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_applications")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.StudentApplication{Name: "Kim", Mode: models.ModeRemote}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert student application")
	require.NoError(t, mock.ExpectationsWereMet())
}
