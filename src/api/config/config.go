package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedconfig "github.com/stake-plus/chatledger/src/config"
	"github.com/stake-plus/chatledger/src/data"
	"github.com/stake-plus/chatledger/src/identity"
	"github.com/stake-plus/chatledger/src/ledger"
	"gorm.io/gorm"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	Port           string
	Moderator      ledger.Identity
	Treasurer      ledger.Identity
	FeesFile       string
	Fees           ledger.FeeSchedule
	RateLimitRPS   float64
	RateLimitBurst int
	AllowOrigins   []string
	TallyCacheTTL  time.Duration
	EventStream    string
	EventStreamLen int64
	TLSCertFile    string
	TLSKeyFile     string
}

// Load resolves configuration from the settings table (when db is non-nil)
// and the environment.
func Load(db *gorm.DB) (Config, error) {
	base := sharedconfig.LoadBase(db)
	get := sharedconfig.GetSetting

	cfg := Config{
		MySQLDSN:       base.MySQLDSN,
		RedisURL:       base.RedisURL,
		JWTSecret:      get("jwt_secret", "JWT_SECRET", ""),
		Port:           get("api_port", "PORT", "8080"),
		FeesFile:       get("fees_file", "LEDGER_FEES_FILE", ""),
		RateLimitRPS:   parseFloat(get("rate_limit_rps", "RATE_LIMIT_RPS", ""), 5),
		RateLimitBurst: int(parseFloat(get("rate_limit_burst", "RATE_LIMIT_BURST", ""), 20)),
		AllowOrigins:   splitOrigins(get("cors_origins", "CORS_ORIGINS", "http://localhost:3000")),
		TallyCacheTTL:  time.Duration(parseFloat(get("tally_cache_seconds", "TALLY_CACHE_SECONDS", ""), 30)) * time.Second,
		EventStream:    get("event_stream", "EVENT_STREAM", data.EventStream),
		EventStreamLen: int64(parseFloat(get("event_stream_len", "EVENT_STREAM_LEN", ""), 100000)),
		TLSCertFile:    get("tls_cert_file", "TLS_CERT_FILE", ""),
		TLSKeyFile:     get("tls_key_file", "TLS_KEY_FILE", ""),
	}
	if cfg.MySQLDSN == "" {
		return cfg, fmt.Errorf("MYSQL_DSN is not set")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return cfg, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if len(cfg.JWTSecret) < 32 {
		return cfg, fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}

	var err error
	if cfg.Moderator, err = role("moderator", get("ledger_moderator", "LEDGER_MODERATOR", "")); err != nil {
		return cfg, err
	}
	if cfg.Treasurer, err = role("treasurer", get("ledger_treasurer", "LEDGER_TREASURER", "")); err != nil {
		return cfg, err
	}
	if cfg.Fees, err = sharedconfig.LoadFees(cfg.FeesFile); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Roles returns the privileged identities as the ledger expects them.
func (c Config) Roles() ledger.Roles {
	return ledger.Roles{Moderator: c.Moderator, Treasurer: c.Treasurer}
}

func role(name, raw string) (ledger.Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%s identity is not configured", name)
	}
	addr, err := identity.Normalize(raw)
	if err != nil {
		return "", fmt.Errorf("%s identity: %w", name, err)
	}
	return ledger.Identity(addr), nil
}

func parseFloat(raw string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
