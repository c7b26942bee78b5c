package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultConfigFile  = "./config/config.env"
	DefaultSecretsFile = "./config/secrets.env"
)

type Config struct {
	ListenPort      string        // ex: ":8080", built from PORT
	ShutdownTimeout time.Duration // ex: 5s
	Token           string        // SP_TOKEN, shared write secret

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StorageDir   string // directory holding msg.json
	LogDir       string // directory holding errorlog_<day>.txt
	Timezone     string // IANA zone for every rendered timestamp
	FaviconFile  string // served on /favicon.ico when present
	RevisionFile string // first tab-separated field becomes "v" on GET /
	MTimeFile    string // file whose mtime is reported on GET / (empty = own executable)

	RateLimitMax    int           // admitted requests per client per window
	RateLimitWindow time.Duration // window length
	SweepInterval   time.Duration // how often expired in-memory windows are dropped
	TrustProxy      bool          // true => key the limiter on X-Forwarded-For & co

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict /readyz and /metrics to these IPs/CIDRs
	MetricsEnabled bool     // expose /metrics

	// Redis (optional, shares rate limit windows between instances)
	RedisAddr           string        // empty => in-memory windows
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int           // connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts
}

// Load reads the general config file and the secrets file (dotenv format,
// both optional) and the process environment, which takes precedence.
// File locations can be moved with NOTICE_CONFIG_FILE and NOTICE_SECRETS_FILE.
func Load() *Config {
	v, err := newSource(
		osGetenv("NOTICE_CONFIG_FILE", DefaultConfigFile),
		osGetenv("NOTICE_SECRETS_FILE", DefaultSecretsFile),
	)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}
	return load(v)
}

func load(v *viper.Viper) *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      listenAddr(requireEnv(v, "PORT")),
		ShutdownTimeout: mustDuration(v, "NOTICE_SHUTDOWN_TIMEOUT", 5*time.Second),
		Token:           requireEnv(v, "SP_TOKEN"),

		// Logging
		LogLevel:  getenv(v, "NOTICE_LOG_LEVEL", "info"),
		PrettyLog: mustBool(v, "NOTICE_PRETTY_LOG", false),

		// Files
		StorageDir:   getenv(v, "NOTICE_STORAGE_DIR", "./storage"),
		LogDir:       getenv(v, "NOTICE_LOG_DIR", "./log"),
		Timezone:     getenv(v, "NOTICE_TIMEZONE", "Europe/Oslo"),
		FaviconFile:  getenv(v, "NOTICE_FAVICON_FILE", "./favicon.ico"),
		RevisionFile: getenv(v, "NOTICE_REVISION_FILE", ".git/FETCH_HEAD"),
		MTimeFile:    getenv(v, "NOTICE_MTIME_FILE", ""),

		// Rate limiting
		RateLimitMax:    getenvInt(v, "NOTICE_RATE_LIMIT_MAX", 250),
		RateLimitWindow: mustDuration(v, "NOTICE_RATE_LIMIT_WINDOW", time.Minute),
		SweepInterval:   mustDuration(v, "NOTICE_RATE_LIMIT_SWEEP", time.Minute),
		TrustProxy:      mustBool(v, "NOTICE_TRUST_PROXY", false),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv(v, "NOTICE_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(getenv(v, "NOTICE_ALLOWED_CIDRS", "")),
		MetricsEnabled: mustBool(v, "NOTICE_METRICS_ENABLED", true),

		// Redis settings
		RedisAddr:           getenv(v, "NOTICE_REDIS_ADDR", ""),
		RedisUser:           getenv(v, "NOTICE_REDIS_USERNAME", ""),
		RedisPassword:       getenv(v, "NOTICE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt(v, "NOTICE_REDIS_DB", 0),
		RedisDT:             mustDuration(v, "NOTICE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration(v, "NOTICE_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration(v, "NOTICE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt(v, "NOTICE_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration(v, "NOTICE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration(v, "NOTICE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration(v, "NOTICE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration(v, "NOTICE_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt(v, "NOTICE_REDIS_WARN_THRESHOLD", 3),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.Token = "***REDACTED***"
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	return c
}

// newSource merges the given dotenv files into one viper instance. Missing
// files are skipped; unreadable or malformed ones are errors.
func newSource(files ...string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()

	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		v.SetConfigFile(f)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", f, err)
		}
	}
	return v, nil
}

func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// helpers
func osGetenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenv(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}

func requireEnv(v *viper.Viper, key string) string {
	s := v.GetString(key)
	if s == "" {
		panic(fmt.Sprintf("❌ FATAL: Required setting %s is not set", key))
	}
	return s
}

func getenvInt(v *viper.Viper, key string, def int) int {
	if s := v.GetString(key); s != "" {
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
	}
	return def
}

func mustBool(v *viper.Viper, key string, def bool) bool {
	if s := v.GetString(key); s != "" {
		b, err := strconv.ParseBool(s)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if s := v.GetString(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
