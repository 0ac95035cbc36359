package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

const (
	codeFloor = 100000
	codeSpan  = 900000
)

type portalCodeStore interface {
	Create(ctx context.Context, code *models.PortalAccessCode) error
	VerifyLatest(ctx context.Context, phone string, now time.Time, check func(*models.PortalAccessCode) error) (*models.PortalAccessCode, error)
}

// CredentialConfig tunes portal access codes.
type CredentialConfig struct {
	TTL      time.Duration
	HashCost int
}

// CredentialService issues and verifies 6-digit portal access codes. Every
// issued code stays valid until its own expiry; verification always checks
// the newest unexpired code for the phone.
type CredentialService struct {
	repo    portalCodeStore
	cfg     CredentialConfig
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	random  io.Reader
}

func NewCredentialService(repo portalCodeStore, cfg CredentialConfig, metrics *MetricsService, logger *zap.Logger) *CredentialService {
	if cfg.TTL <= 0 {
		cfg.TTL = 120 * 24 * time.Hour
	}
	if cfg.HashCost < bcrypt.MinCost || cfg.HashCost > bcrypt.MaxCost {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialService{
		repo:    repo,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		random:  rand.Reader,
	}
}

// Prepare mints a code for phone without persisting it, so the caller can
// store the row inside its own transaction.
func (s *CredentialService) Prepare(enrollmentID int64, rawPhone string) (string, *models.PortalAccessCode, error) {
	p := phone.Normalize(rawPhone)
	if !phone.Valid(p) {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "phone must have 10 or 11 digits")
	}

	plain, err := s.generateCode()
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cfg.HashCost)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash access code")
	}

	return plain, &models.PortalAccessCode{
		EnrollmentID: enrollmentID,
		Phone:        p,
		CodeHash:     string(hash),
		ExpiresAt:    s.now().Add(s.cfg.TTL),
	}, nil
}

// Issue mints and stores a code. The plaintext is returned only here.
func (s *CredentialService) Issue(ctx context.Context, enrollmentID int64, rawPhone string) (string, *models.PortalAccessCode, error) {
	plain, record, err := s.Prepare(enrollmentID, rawPhone)
	if err != nil {
		return "", nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store access code")
	}
	return plain, record, nil
}

// Verify checks code against the newest unexpired code for phone and stamps
// its last use. It returns NO_CODE or INVALID_CODE on failure.
func (s *CredentialService) Verify(ctx context.Context, rawPhone, code string) (*models.PortalAccessCode, error) {
	p := phone.Normalize(rawPhone)
	record, err := s.repo.VerifyLatest(ctx, p, s.now(), func(row *models.PortalAccessCode) error {
		if bcrypt.CompareHashAndPassword([]byte(row.CodeHash), []byte(code)) != nil {
			return appErrors.Clone(appErrors.ErrInvalidCode, "access code does not match")
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			s.metrics.RecordCredentialVerification(appErrors.ErrNoCode.Code)
			return nil, appErrors.Clone(appErrors.ErrNoCode, "no active access code for phone")
		case errors.Is(err, appErrors.ErrInvalidCode):
			s.metrics.RecordCredentialVerification(appErrors.ErrInvalidCode.Code)
			return nil, appErrors.FromError(err)
		default:
			s.metrics.RecordCredentialVerification("error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify access code")
		}
	}
	s.metrics.RecordCredentialVerification("ok")
	return record, nil
}

func (s *CredentialService) generateCode() (string, error) {
	n, err := rand.Int(s.random, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeFloor), nil
}
