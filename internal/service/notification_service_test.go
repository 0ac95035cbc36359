package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flownco2789-ui/codeai/internal/models"
)

type fakeContacts struct {
	contacts []models.AdminContact
	err      error
	asked    [][]models.AdminRole
}

func (f *fakeContacts) ListContactsByRoles(_ context.Context, roles []models.AdminRole) ([]models.AdminContact, error) {
	f.asked = append(f.asked, roles)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.AdminContact
	for _, c := range f.contacts {
		for _, r := range roles {
			if c.Role == r {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

type fakeLedger struct {
	entries []models.NotificationLogEntry
	appends int
}

func (f *fakeLedger) Append(_ context.Context, entries []models.NotificationLogEntry) error {
	f.appends++
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeLedger) List(_ context.Context, filter models.NotificationFilter) ([]models.NotificationLogEntry, error) {
	out := make([]models.NotificationLogEntry, 0, len(f.entries))
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if filter.Phone != "" && (e.ToPhone == nil || *e.ToPhone != filter.Phone) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func sampleContacts() *fakeContacts {
	return &fakeContacts{contacts: []models.AdminContact{
		{ID: 1, Role: models.RoleSuperAdmin, Phone: "01000000001"},
		{ID: 2, Role: models.RoleSubAdmin, Phone: "01000000002"},
		{ID: 3, Role: models.RoleStudentAdmin, Phone: "01000000003"},
		{ID: 4, Role: models.RoleInstructorAdmin, Phone: "01000000004"},
	}}
}

func TestNotificationServiceRecordForRolesFansOut(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewNotificationService(sampleContacts(), ledger, nil)

	err := svc.RecordForRoles(context.Background(), reportDeskRoles, models.EventReportSubmitted, models.JSONMap{"reportId": 5})
	require.NoError(t, err)
	require.Len(t, ledger.entries, 2)
	for _, e := range ledger.entries {
		assert.Equal(t, models.ChannelInternal, e.Channel)
		assert.Equal(t, models.NotificationQueued, e.Status)
		require.NotNil(t, e.ToRole)
		require.NotNil(t, e.ToPhone)
	}
	assert.Equal(t, "SUPER_ADMIN", *ledger.entries[0].ToRole)
	assert.Equal(t, "01000000002", *ledger.entries[1].ToPhone)
}

func TestNotificationServiceNoOps(t *testing.T) {
	ledger := &fakeLedger{}
	contacts := &fakeContacts{}
	svc := NewNotificationService(contacts, ledger, nil)

	require.NoError(t, svc.RecordForRoles(context.Background(), nil, models.EventReportSubmitted, nil))
	require.NoError(t, svc.RecordForRoles(context.Background(), reportDeskRoles, models.EventReportSubmitted, nil))
	require.NoError(t, svc.RecordForPhone(context.Background(), "", models.EventPortalCodeIssued, nil))
	assert.Zero(t, ledger.appends)
	assert.Len(t, contacts.asked, 1)
}

func TestNotificationServiceEntriesForOutboxEvent(t *testing.T) {
	svc := NewNotificationService(sampleContacts(), &fakeLedger{}, nil)

	entries, err := svc.EntriesFor(context.Background(), rolesEvent(models.EventStudentApplicationCreated, studentDeskRoles, models.JSONMap{"id": 1}))
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = svc.EntriesFor(context.Background(), phoneEvent(models.EventPortalCodeIssued, "01012345678", models.JSONMap{"portalCode": "123456"}))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].ToRole)
	assert.Equal(t, "01012345678", *entries[0].ToPhone)

	_, err = svc.EntriesFor(context.Background(), models.OutboxEvent{TargetKind: "EMAIL"})
	assert.Error(t, err)
}

func TestNotificationServiceResolveFailure(t *testing.T) {
	svc := NewNotificationService(&fakeContacts{err: errors.New("db down")}, &fakeLedger{}, nil)
	_, err := svc.EntriesFor(context.Background(), rolesEvent(models.EventReportSubmitted, reportDeskRoles, nil))
	assert.Error(t, err)
}

func TestNotificationServiceListRedactsSecrets(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewNotificationService(sampleContacts(), ledger, nil)
	require.NoError(t, svc.RecordForPhone(context.Background(), "01012345678", models.EventPortalCodeIssued,
		models.JSONMap{"enrollmentId": 1, "portalCode": "482913"}))

	entries, err := svc.List(context.Background(), models.NotificationFilter{Phone: "010-1234-5678"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "******", entries[0].Payload["portalCode"])
	assert.Equal(t, "482913", ledger.entries[0].Payload["portalCode"])
}
