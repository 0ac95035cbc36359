package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

type fakeAdmins map[string]*models.AdminUser

func (f fakeAdmins) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	if a, ok := f[email]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

type fakeInstructorAccounts map[string]*models.Instructor

func (f fakeInstructorAccounts) FindByEmail(_ context.Context, email string) (*models.Instructor, error) {
	if i, ok := f[email]; ok {
		return i, nil
	}
	return nil, sql.ErrNoRows
}

type memoryCounter struct {
	counts map[string]int64
	err    error
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: map[string]int64{}}
}

func (m *memoryCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryCounter) Count(_ context.Context, key string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[key], nil
}

func (m *memoryCounter) Delete(_ context.Context, key string) error {
	delete(m.counts, key)
	return nil
}

var authTestNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestAuthService(admins fakeAdmins, instructors fakeInstructorAccounts, portal portalVerifier, throttle *LoginThrottle) *AuthService {
	svc := NewAuthService(admins, instructors, portal, throttle, nil, nil, AuthConfig{Secret: "test-secret", Issuer: "codeai-test"})
	svc.now = func() time.Time { return authTestNow }
	return svc
}

func TestAuthServiceAdminLogin(t *testing.T) {
	admins := fakeAdmins{"boss@codeai.kr": {ID: 1, Email: "boss@codeai.kr", PasswordHash: hashed(t, "secret"), Role: models.RoleSuperAdmin, Active: true}}
	svc := newTestAuthService(admins, nil, nil, nil)

	resp, err := svc.AdminLogin(context.Background(), models.LoginRequest{Email: " Boss@CodeAI.kr ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, models.AudienceAdmin, resp.Audience)
	assert.Equal(t, models.RoleSuperAdmin, resp.Role)
	assert.Equal(t, int64((7 * 24 * time.Hour).Seconds()), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.AudienceAdmin, claims.Type)
	assert.Equal(t, int64(1), claims.ID)
	assert.Equal(t, jwt.ClaimStrings{"ADMIN"}, claims.Audience)
	assert.Equal(t, "1", claims.Subject)
}

func TestAuthServiceInstructorLoginTrimsEmail(t *testing.T) {
	instructors := fakeInstructorAccounts{"kim@codeai.kr": {ID: 7, Profile: models.Profile{Email: "kim@codeai.kr", Name: "Kim"}, PasswordHash: hashed(t, "pw"), Status: models.InstructorActive}}
	svc := newTestAuthService(nil, instructors, nil, nil)

	_, err := svc.InstructorLogin(context.Background(), models.LoginRequest{Email: "\tKim@CodeAI.kr  ", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.InstructorLogin(context.Background(), models.LoginRequest{Email: "  ", Password: "pw"})
	assertCode(t, err, appErrors.ErrValidation)
}

func TestAuthServiceAdminLoginFailures(t *testing.T) {
	admins := fakeAdmins{
		"boss@codeai.kr": {ID: 1, Email: "boss@codeai.kr", PasswordHash: hashed(t, "secret"), Role: models.RoleSuperAdmin, Active: true},
		"gone@codeai.kr": {ID: 2, Email: "gone@codeai.kr", PasswordHash: hashed(t, "secret"), Role: models.RoleSubAdmin},
	}
	svc := newTestAuthService(admins, nil, nil, nil)

	_, err := svc.AdminLogin(context.Background(), models.LoginRequest{Email: "boss@codeai.kr", Password: "wrong"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.AdminLogin(context.Background(), models.LoginRequest{Email: "nobody@codeai.kr", Password: "secret"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.AdminLogin(context.Background(), models.LoginRequest{Email: "gone@codeai.kr", Password: "secret"})
	assertCode(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.AdminLogin(context.Background(), models.LoginRequest{Email: "boss", Password: "secret"})
	assertCode(t, err, appErrors.ErrValidation)
}

func TestAuthServiceInstructorLogin(t *testing.T) {
	instructors := fakeInstructorAccounts{
		"lee@example.com": {ID: 7, Profile: models.Profile{Name: "Lee", Email: "lee@example.com"}, PasswordHash: hashed(t, "tmp!"), Status: models.InstructorActive},
		"off@example.com": {ID: 8, Profile: models.Profile{Email: "off@example.com"}, PasswordHash: hashed(t, "tmp!"), Status: models.InstructorInactive},
	}
	svc := newTestAuthService(nil, instructors, nil, nil)

	resp, err := svc.InstructorLogin(context.Background(), models.LoginRequest{Email: "lee@example.com", Password: "tmp!"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.AudienceInstructor, claims.Type)
	assert.Equal(t, "Lee", claims.Name)

	_, err = svc.InstructorLogin(context.Background(), models.LoginRequest{Email: "off@example.com", Password: "tmp!"})
	assertCode(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServicePortalLoginAfterMarkPaid(t *testing.T) {
	m := newMemoryMarketplace()
	m.addEnrollment(1, 7, models.EnrollmentPaymentRequested)
	enrollments, creds := newTestEnrollmentService(m, nil, nil)
	svc := newTestAuthService(nil, nil, creds, nil)

	paid, err := enrollments.MarkPaid(context.Background(), 1)
	require.NoError(t, err)

	resp, err := svc.PortalLogin(context.Background(), models.PortalLoginRequest{Phone: "010-1234-5678", Code: paid.PortalCode})
	require.NoError(t, err)
	assert.Equal(t, models.AudiencePortal, resp.Audience)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "01012345678", claims.Phone)
	assert.Zero(t, claims.ID)
}

func TestAuthServicePortalLoginHidesReason(t *testing.T) {
	m := newMemoryMarketplace()
	m.addEnrollment(1, 7, models.EnrollmentPaymentRequested)
	enrollments, creds := newTestEnrollmentService(m, nil, nil)
	svc := newTestAuthService(nil, nil, creds, nil)
	_, err := enrollments.MarkPaid(context.Background(), 1)
	require.NoError(t, err)

	_, err = svc.PortalLogin(context.Background(), models.PortalLoginRequest{Phone: "01012345678", Code: "000000"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.PortalLogin(context.Background(), models.PortalLoginRequest{Phone: "01099990000", Code: "123456"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServicePortalLoginThrottled(t *testing.T) {
	m := newMemoryMarketplace()
	m.addEnrollment(1, 7, models.EnrollmentPaymentRequested)
	enrollments, creds := newTestEnrollmentService(m, nil, nil)
	counter := newMemoryCounter()
	svc := newTestAuthService(nil, nil, creds, NewLoginThrottle(counter, 2, time.Minute, nil, nil))
	paid, err := enrollments.MarkPaid(context.Background(), 1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.PortalLogin(context.Background(), models.PortalLoginRequest{Phone: "01012345678", Code: "000000"})
		assertCode(t, err, appErrors.ErrInvalidCredentials)
	}
	_, err = svc.PortalLogin(context.Background(), models.PortalLoginRequest{Phone: "01012345678", Code: paid.PortalCode})
	assertCode(t, err, appErrors.ErrTooManyAttempts)

	delete(counter.counts, portalThrottlePrefix+"01012345678")
	_, err = svc.PortalLogin(context.Background(), models.PortalLoginRequest{Phone: "010-1234-5678", Code: paid.PortalCode})
	require.NoError(t, err)
}

func TestLoginThrottleFailsOpen(t *testing.T) {
	counter := newMemoryCounter()
	counter.err = errors.New("redis down")
	throttle := NewLoginThrottle(counter, 1, time.Minute, nil, nil)

	throttle.Fail(context.Background(), "01012345678")
	assert.NoError(t, throttle.Allow(context.Background(), "01012345678"))

	var disabled *LoginThrottle
	assert.NoError(t, disabled.Allow(context.Background(), "x"))
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	admins := fakeAdmins{"boss@codeai.kr": {ID: 1, Email: "boss@codeai.kr", PasswordHash: hashed(t, "secret"), Role: models.RoleSuperAdmin, Active: true}}
	svc := newTestAuthService(admins, nil, nil, nil)
	resp, err := svc.AdminLogin(context.Background(), models.LoginRequest{Email: "boss@codeai.kr", Password: "secret"})
	require.NoError(t, err)

	other := newTestAuthService(admins, nil, nil, nil)
	other.config.Secret = "another-secret"
	_, err = other.ValidateToken(resp.Token)
	assertCode(t, err, appErrors.ErrUnauthorized)

	svc.now = func() time.Time { return authTestNow.Add(8 * 24 * time.Hour) }
	_, err = svc.ValidateToken(resp.Token)
	assertCode(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenChecksIssuerAndAudience(t *testing.T) {
	admins := fakeAdmins{"boss@codeai.kr": {ID: 1, Email: "boss@codeai.kr", PasswordHash: hashed(t, "secret"), Role: models.RoleSuperAdmin, Active: true}}
	svc := newTestAuthService(admins, nil, nil, nil)
	resp, err := svc.AdminLogin(context.Background(), models.LoginRequest{Email: "boss@codeai.kr", Password: "secret"})
	require.NoError(t, err)

	foreign := newTestAuthService(admins, nil, nil, nil)
	foreign.config.Issuer = "someone-else"
	_, err = foreign.ValidateToken(resp.Token)
	assertCode(t, err, appErrors.ErrUnauthorized)

	claims := &models.TokenClaims{Type: models.AudienceAdmin, ID: 1, Role: models.RoleSuperAdmin}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    "codeai-test",
		Audience:  jwt.ClaimStrings{string(models.AudiencePortal)},
		ExpiresAt: jwt.NewNumericDate(authTestNow.Add(time.Hour)),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assertCode(t, err, appErrors.ErrUnauthorized)
}
