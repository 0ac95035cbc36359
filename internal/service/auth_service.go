package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

type adminAccountReader interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

type instructorAccountReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Instructor, error)
}

type portalVerifier interface {
	Verify(ctx context.Context, rawPhone, code string) (*models.PortalAccessCode, error)
}

// AuthConfig defines signing material and per-audience token lifetimes.
type AuthConfig struct {
	Secret        string
	Issuer        string
	AdminTTL      time.Duration
	InstructorTTL time.Duration
	PortalTTL     time.Duration
}

// AuthService issues and validates tokens for the three audiences.
type AuthService struct {
	admins      adminAccountReader
	instructors instructorAccountReader
	portal      portalVerifier
	throttle    *LoginThrottle
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
	now         func() time.Time
}

func NewAuthService(admins adminAccountReader, instructors instructorAccountReader, portal portalVerifier, throttle *LoginThrottle, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AdminTTL <= 0 {
		config.AdminTTL = 7 * 24 * time.Hour
	}
	if config.InstructorTTL <= 0 {
		config.InstructorTTL = 14 * 24 * time.Hour
	}
	if config.PortalTTL <= 0 {
		config.PortalTTL = 14 * 24 * time.Hour
	}
	return &AuthService{
		admins:      admins,
		instructors: instructors,
		portal:      portal,
		throttle:    throttle,
		validator:   validate,
		logger:      logger,
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) AdminLogin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !admin.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	claims := &models.TokenClaims{Type: models.AudienceAdmin, ID: admin.ID, Role: admin.Role, Email: admin.Email}
	resp, err := s.issue(claims, strconv.FormatInt(admin.ID, 10), s.config.AdminTTL)
	if err != nil {
		return nil, err
	}
	resp.Role = admin.Role
	s.logger.Info("admin logged in", zap.Int64("admin_id", admin.ID), zap.String("role", string(admin.Role)))
	return resp, nil
}

func (s *AuthService) InstructorLogin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	instructor, err := s.instructors.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch instructor")
	}
	if instructor.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(instructor.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if instructor.Status != models.InstructorActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	claims := &models.TokenClaims{Type: models.AudienceInstructor, ID: instructor.ID, Email: instructor.Email, Name: instructor.Name}
	return s.issue(claims, strconv.FormatInt(instructor.ID, 10), s.config.InstructorTTL)
}

// PortalLogin exchanges a phone and access code for a PORTAL token. Which of
// the two was wrong is never revealed to the caller.
func (s *AuthService) PortalLogin(ctx context.Context, req models.PortalLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	p := phone.Normalize(req.Phone)

	if err := s.throttle.Allow(ctx, p); err != nil {
		return nil, err
	}

	if _, err := s.portal.Verify(ctx, p, req.Code); err != nil {
		code := appErrors.CodeOf(err)
		if code == appErrors.ErrNoCode.Code || code == appErrors.ErrInvalidCode.Code {
			s.throttle.Fail(ctx, p)
			s.logger.Info("portal login rejected", zap.String("phone", phone.Mask(p)), zap.String("reason", code))
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid phone or code")
		}
		return nil, err
	}
	s.throttle.Reset(ctx, p)

	return s.issue(&models.TokenClaims{Type: models.AudiencePortal, Phone: p}, p, s.config.PortalTTL)
}

// ValidateToken parses a token of any audience; callers check Type. The
// issuer must match and the aud claim must name the token's own Type.
func (s *AuthService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.Type == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !slices.Contains(claims.Audience, string(claims.Type)) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token audience mismatch")
	}
	return claims, nil
}

func (s *AuthService) issue(claims *models.TokenClaims, subject string, ttl time.Duration) (*models.LoginResponse, error) {
	issuedAt := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.config.Issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{string(claims.Type)},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.LoginResponse{Token: signed, ExpiresIn: int64(ttl.Seconds()), Audience: claims.Type}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
