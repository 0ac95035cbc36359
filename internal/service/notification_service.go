package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

// Role groups notified by each event family.
var (
	studentDeskRoles    = []models.AdminRole{models.RoleSuperAdmin, models.RoleSubAdmin, models.RoleStudentAdmin}
	instructorDeskRoles = []models.AdminRole{models.RoleSuperAdmin, models.RoleSubAdmin, models.RoleInstructorAdmin}
	reportDeskRoles     = []models.AdminRole{models.RoleSuperAdmin, models.RoleSubAdmin}
)

var redactedPayloadKeys = []string{"portalCode", "tempPassword"}

type adminContactStore interface {
	ListContactsByRoles(ctx context.Context, roles []models.AdminRole) ([]models.AdminContact, error)
}

type notificationLedger interface {
	Append(ctx context.Context, entries []models.NotificationLogEntry) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLogEntry, error)
}

// NotificationService records notification intents. Nothing is delivered;
// entries are QUEUED on the INTERNAL channel for an external dispatcher.
type NotificationService struct {
	contacts adminContactStore
	ledger   notificationLedger
	logger   *zap.Logger
}

func NewNotificationService(contacts adminContactStore, ledger notificationLedger, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{contacts: contacts, ledger: ledger, logger: logger}
}

// RecordForRoles writes one entry per active admin with a phone whose role is in roles.
func (s *NotificationService) RecordForRoles(ctx context.Context, roles []models.AdminRole, eventType string, payload models.JSONMap) error {
	entries, err := s.roleEntries(ctx, roles, eventType, payload)
	if err != nil {
		return err
	}
	return s.append(ctx, entries)
}

// RecordForPhone writes a single entry addressed to phone. An empty phone is a no-op.
func (s *NotificationService) RecordForPhone(ctx context.Context, to string, eventType string, payload models.JSONMap) error {
	return s.append(ctx, phoneEntries(to, eventType, payload))
}

// EntriesFor resolves the ledger entries an outbox event stands for.
func (s *NotificationService) EntriesFor(ctx context.Context, ev models.OutboxEvent) ([]models.NotificationLogEntry, error) {
	switch ev.TargetKind {
	case models.OutboxTargetRoles:
		return s.roleEntries(ctx, ev.RolesOf(), ev.EventType, ev.Payload)
	case models.OutboxTargetPhone:
		to := ""
		if ev.Phone != nil {
			to = *ev.Phone
		}
		return phoneEntries(to, ev.EventType, ev.Payload), nil
	default:
		return nil, fmt.Errorf("unknown outbox target %q", ev.TargetKind)
	}
}

// List returns ledger entries newest first with secrets masked.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLogEntry, error) {
	if filter.Phone != "" {
		filter.Phone = phone.Normalize(filter.Phone)
	}
	entries, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	for i := range entries {
		entries[i].Payload = redactPayload(entries[i].Payload)
	}
	return entries, nil
}

func (s *NotificationService) roleEntries(ctx context.Context, roles []models.AdminRole, eventType string, payload models.JSONMap) ([]models.NotificationLogEntry, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	contacts, err := s.contacts.ListContactsByRoles(ctx, roles)
	if err != nil {
		return nil, fmt.Errorf("resolve %s recipients: %w", eventType, err)
	}
	entries := make([]models.NotificationLogEntry, 0, len(contacts))
	for _, c := range contacts {
		role := string(c.Role)
		to := c.Phone
		entries = append(entries, ledgerEntry(eventType, &role, &to, payload))
	}
	return entries, nil
}

func (s *NotificationService) append(ctx context.Context, entries []models.NotificationLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.ledger.Append(ctx, entries); err != nil {
		return fmt.Errorf("append notifications: %w", err)
	}
	s.logger.Debug("notifications recorded", zap.String("event_type", entries[0].EventType), zap.Int("count", len(entries)))
	return nil
}

func phoneEntries(to, eventType string, payload models.JSONMap) []models.NotificationLogEntry {
	if to == "" {
		return nil
	}
	return []models.NotificationLogEntry{ledgerEntry(eventType, nil, &to, payload)}
}

func ledgerEntry(eventType string, role, to *string, payload models.JSONMap) models.NotificationLogEntry {
	if payload == nil {
		payload = models.JSONMap{}
	}
	return models.NotificationLogEntry{
		Channel:   models.ChannelInternal,
		EventType: eventType,
		ToRole:    role,
		ToPhone:   to,
		Payload:   payload,
		Status:    models.NotificationQueued,
	}
}

func redactPayload(payload models.JSONMap) models.JSONMap {
	out := make(models.JSONMap, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	for _, key := range redactedPayloadKeys {
		if _, ok := out[key]; ok {
			out[key] = "******"
		}
	}
	return out
}

// rolesEvent and phoneEvent build outbox rows for a transition to commit.
func rolesEvent(eventType string, roles []models.AdminRole, payload models.JSONMap) models.OutboxEvent {
	names := make(models.StringList, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return models.OutboxEvent{EventType: eventType, TargetKind: models.OutboxTargetRoles, Roles: names, Payload: payload}
}

func phoneEvent(eventType, to string, payload models.JSONMap) models.OutboxEvent {
	p := to
	return models.OutboxEvent{EventType: eventType, TargetKind: models.OutboxTargetPhone, Phone: &p, Payload: payload}
}
