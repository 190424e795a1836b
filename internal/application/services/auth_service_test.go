package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

func TestAuthLoginRoles(t *testing.T) {
	auth, err := NewAuthService(config.AuthConfig{
		JWTSecret:        "test-secret",
		OperatorPassword: "op-pass",
		EditorPassword:   "ed-pass",
		TokenTTL:         time.Hour,
	}, logging.NewDiscardLogger())
	require.NoError(t, err)

	token, role, err := auth.Login("op-pass")
	require.NoError(t, err)
	assert.Equal(t, security.RoleOperator, role)
	got, err := auth.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, security.RoleOperator, got)

	_, role, err = auth.Login("ed-pass")
	require.NoError(t, err)
	assert.Equal(t, security.RoleEditor, role)

	_, _, err = auth.Login("nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthDisabledRoleCannotLogin(t *testing.T) {
	auth, err := NewAuthService(config.AuthConfig{OperatorPassword: "op-pass"}, logging.NewDiscardLogger())
	require.NoError(t, err)

	_, _, err = auth.Login("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 12*time.Hour, auth.TokenTTL())
}
