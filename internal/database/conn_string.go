package database

import (
	"fmt"
	"net/url"

	"tradebridge/internal/config"
)

// BuildConnString renders the journal database settings as a postgres://
// connection URL. The password is query-escaped so credentials containing
// ':', '@' or '/' survive; an unset ssl_mode falls back to "prefer".
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
