package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/edubase4teachers/edubase-server/internal/auth"
	"github.com/edubase4teachers/edubase-server/internal/config"
	"github.com/edubase4teachers/edubase-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key. The key lives
// next to the database file so a data-directory backup captures both.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key := cfg.Auth.AccessTokenKey
	if len(key) == 0 {
		loaded, err := auth.LoadOrGenerateKey(filepath.Dir(cfg.Database.Path))
		if err != nil {
			return nil, err
		}
		key = loaded
		cfg.Auth.AccessTokenKey = loaded
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}
