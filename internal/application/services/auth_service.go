package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService issues role tokens for the configured editor and operator
// passwords. A role with no password cannot log in.
type AuthService struct {
	secret       string
	ttl          time.Duration
	operatorHash string
	editorHash   string
	logger       *logging.ChanneledLogger
}

func NewAuthService(cfg config.AuthConfig, logger *logging.ChanneledLogger) (*AuthService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := security.NewSigningSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		secret = generated
		logger.Auth().Warn("No JWT secret configured, tokens will not survive a restart")
	}

	operatorHash, err := security.HashPassword(cfg.OperatorPassword)
	if err != nil {
		return nil, err
	}
	editorHash, err := security.HashPassword(cfg.EditorPassword)
	if err != nil {
		return nil, err
	}
	if operatorHash == "" {
		logger.Auth().Warn("No operator password configured, operator endpoints are disabled")
	}
	if editorHash == "" {
		logger.Auth().Warn("No editor password configured, editor login is disabled")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		secret:       secret,
		ttl:          ttl,
		operatorHash: operatorHash,
		editorHash:   editorHash,
		logger:       logger,
	}, nil
}

// Login checks password against the operator password first, then the editor
// password, and returns a token for the first role it matches.
func (s *AuthService) Login(password string) (string, security.Role, error) {
	var role security.Role
	switch {
	case security.CheckPassword(s.operatorHash, password):
		role = security.RoleOperator
	case security.CheckPassword(s.editorHash, password):
		role = security.RoleEditor
	default:
		s.logger.LogAuthOperation("login", "", false, nil)
		return "", "", ErrInvalidCredentials
	}

	token, err := security.IssueRoleToken(role, s.secret, s.ttl)
	if err != nil {
		return "", "", err
	}
	s.logger.LogAuthOperation("login", string(role), true, nil)
	return token, role, nil
}

func (s *AuthService) Validate(token string) (security.Role, error) {
	return security.RoleFromToken(token, s.secret)
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.ttl
}
