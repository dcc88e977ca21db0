package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finsupport/triage-service/internal/auth"
	"github.com/finsupport/triage-service/internal/config"
	"github.com/finsupport/triage-service/internal/domain"
	"github.com/finsupport/triage-service/internal/repository"
	"github.com/finsupport/triage-service/internal/session"
	apperrors "github.com/finsupport/triage-service/pkg/util/errorutil"
)

// AuthService coordinates operator login and session issuance.
type AuthService struct {
	operators  repository.OperatorRepository
	sessions   *session.Manager
	tokenMgr   *auth.TokenManager
	bcryptCost int
	devCfg     config.AuthConfig
}

// NewAuthService builds the service. The operator repository may be nil when
// Postgres is not configured; login then only accepts the env-configured dev
// operator.
func NewAuthService(cfg config.Config, operators repository.OperatorRepository, sessions *session.Manager) *AuthService {
	return &AuthService{
		operators:  operators,
		sessions:   sessions,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		bcryptCost: cfg.Auth.BcryptCost,
		devCfg:     cfg.Auth,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates an operator, starts a triage session and returns a
// session-bound token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Operator, string, time.Time, error) {
	operator, err := s.lookupOperator(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	sess := s.sessions.Create(operator.ID)
	token, exp, err := s.tokenMgr.GenerateToken(operator.ID, sess.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return operator, token, exp, nil
}

// Register creates a new operator account.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*domain.Operator, error) {
	if s.operators == nil {
		return nil, apperrors.NewConflict("operator registration requires a database", nil)
	}
	if _, err := s.operators.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	operator := &domain.Operator{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.operators.Create(ctx, operator); err != nil {
		return nil, err
	}
	return operator, nil
}

func (s *AuthService) lookupOperator(ctx context.Context, email, password string) (*domain.Operator, error) {
	if s.operators != nil {
		operator, err := s.operators.GetByEmail(ctx, email)
		if err == nil {
			if !operator.IsActive {
				return nil, apperrors.NewUnauthorized("operator disabled")
			}
			if err := auth.ComparePassword(operator.PasswordHash, password); err != nil {
				return nil, apperrors.NewUnauthorized("invalid credentials")
			}
			return operator, nil
		}
		if err != pgx.ErrNoRows {
			return nil, err
		}
	}
	// Dev fallback so the service is usable without Postgres.
	if s.devCfg.DevOperatorEmail != "" &&
		email == s.devCfg.DevOperatorEmail &&
		password == s.devCfg.DevOperatorPassword {
		return &domain.Operator{
			ID:          "dev-operator",
			Email:       email,
			DisplayName: s.devCfg.DevOperatorName,
			IsActive:    true,
		}, nil
	}
	return nil, apperrors.NewUnauthorized("invalid credentials")
}
