package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/northfarm/sales-backend/internal/audit"
	pkgauth "github.com/northfarm/sales-backend/pkg/auth"
	"github.com/northfarm/sales-backend/pkg/config"
	"github.com/northfarm/sales-backend/pkg/enums"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
	"github.com/northfarm/sales-backend/pkg/logger"
	"github.com/northfarm/sales-backend/pkg/security"
)

// LoginInput carries the submitted credentials.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string          `json:"token"`
	Username  string          `json:"username"`
	Role      enums.ActorRole `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Sessions is the session lifecycle surface the auth service needs.
type Sessions interface {
	Create(ctx context.Context, sessionID string) error
	Revoke(ctx context.Context, sessionID string) error
}

// Service authenticates against the fixed credential table and manages
// token-backed sessions. Administrator logins are audited; staff logins are
// routine and are not.
type Service interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type service struct {
	creds    []config.Credential
	jwtCfg   config.JWTConfig
	sessions Sessions
	trail    audit.Service
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the auth service from the configured credential table.
func NewService(authCfg config.AuthConfig, jwtCfg config.JWTConfig, sessions Sessions, trail audit.Service, logg *logger.Logger) (Service, error) {
	creds, err := authCfg.Credentials()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading credential table")
	}
	if sessions == nil || trail == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth service dependencies required")
	}
	return &service{
		creds:    creds,
		jwtCfg:   jwtCfg,
		sessions: sessions,
		trail:    trail,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	cred, ok := s.lookup(username)
	if !ok {
		return nil, badCredentials()
	}

	match, err := security.VerifyPassword(in.Password, cred.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying credentials")
	}
	if !match {
		return nil, badCredentials()
	}

	role, err := enums.ParseActorRole(cred.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving actor role")
	}

	now := s.now().UTC()
	jti := uuid.NewString()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		Username: cred.Username,
		Role:     role,
		JTI:      jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	if err := s.sessions.Create(ctx, jti); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "registering session")
	}

	if role == enums.ActorRoleAdmin {
		if err := s.trail.Append(ctx, enums.AuditActionAdminLogin, "administrator signed in", cred.Username); err != nil && s.logg != nil {
			s.logg.Error(ctx, "recording admin login audit failed", err)
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithActor(ctx, cred.Username), "login succeeded")
	}

	return &LoginResult{
		Token:     token,
		Username:  cred.Username,
		Role:      role,
		ExpiresAt: now.Add(s.jwtCfg.SessionTTL()),
	}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) lookup(username string) (config.Credential, bool) {
	for _, cred := range s.creds {
		if cred.Username == username {
			return cred, true
		}
	}
	return config.Credential{}, false
}

// badCredentials is deliberately identical for unknown users and wrong
// passwords.
func badCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid username or password")
}
