package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

// memoryCodeStore mirrors the locking query: newest unexpired row for the phone.
type memoryCodeStore struct {
	mu     sync.Mutex
	rows   []*models.PortalAccessCode
	nextID int64
}

func (m *memoryCodeStore) Create(_ context.Context, code *models.PortalAccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	code.ID = m.nextID
	code.CreatedAt = time.Now()
	m.rows = append(m.rows, code)
	return nil
}

func (m *memoryCodeStore) VerifyLatest(_ context.Context, phone string, now time.Time, check func(*models.PortalAccessCode) error) (*models.PortalAccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.PortalAccessCode
	for _, row := range m.rows {
		if row.Phone != phone || !row.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || row.ID > latest.ID {
			latest = row
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	if err := check(latest); err != nil {
		return nil, err
	}
	stamped := now
	latest.LastUsedAt = &stamped
	return latest, nil
}

func newTestCredentialService(store portalCodeStore, now *time.Time) *CredentialService {
	svc := NewCredentialService(store, CredentialConfig{TTL: 120 * 24 * time.Hour, HashCost: bcrypt.MinCost}, nil, nil)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestCredentialServiceRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := &memoryCodeStore{}
	svc := newTestCredentialService(store, &now)

	plain, record, err := svc.Issue(context.Background(), 1, "010-1234-5678")
	require.NoError(t, err)
	require.Len(t, plain, 6)
	n, err := strconv.Atoi(plain)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)
	assert.Equal(t, "01012345678", record.Phone)
	assert.Equal(t, now.Add(120*24*time.Hour), record.ExpiresAt)
	assert.NotEqual(t, plain, record.CodeHash)

	verified, err := svc.Verify(context.Background(), "01012345678", plain)
	require.NoError(t, err)
	require.NotNil(t, verified.LastUsedAt)
	assert.Equal(t, now, *verified.LastUsedAt)
}

func TestCredentialServiceWrongCode(t *testing.T) {
	now := time.Now().UTC()
	store := &memoryCodeStore{}
	svc := newTestCredentialService(store, &now)

	plain, _, err := svc.Issue(context.Background(), 1, "01012345678")
	require.NoError(t, err)

	wrong := "100000"
	if plain == wrong {
		wrong = "100001"
	}
	_, err = svc.Verify(context.Background(), "01012345678", wrong)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCode))
	assert.Nil(t, store.rows[0].LastUsedAt)
}

func TestCredentialServiceExpiredCode(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := &memoryCodeStore{}
	svc := newTestCredentialService(store, &now)

	plain, record, err := svc.Issue(context.Background(), 1, "01012345678")
	require.NoError(t, err)

	now = record.ExpiresAt
	_, err = svc.Verify(context.Background(), "01012345678", plain)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoCode))
}

func TestCredentialServiceUnknownPhone(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestCredentialService(&memoryCodeStore{}, &now)

	_, err := svc.Verify(context.Background(), "01099998888", "123456")
	assert.True(t, errors.Is(err, appErrors.ErrNoCode))
}

func TestCredentialServiceNewestCodeWins(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := &memoryCodeStore{}
	svc := newTestCredentialService(store, &now)

	first, _, err := svc.Issue(context.Background(), 1, "01012345678")
	require.NoError(t, err)
	now = now.Add(time.Hour)
	second, _, err := svc.Issue(context.Background(), 1, "01012345678")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), "01012345678", second)
	require.NoError(t, err)
	assert.Nil(t, store.rows[0].LastUsedAt)
	require.NotNil(t, store.rows[1].LastUsedAt)

	if first != second {
		_, err = svc.Verify(context.Background(), "01012345678", first)
		assert.True(t, errors.Is(err, appErrors.ErrInvalidCode))
	}
}

func TestCredentialServiceRejectsMalformedPhone(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestCredentialService(&memoryCodeStore{}, &now)

	_, _, err := svc.Prepare(1, "12345")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
