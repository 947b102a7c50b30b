package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Upload defaults, also used when the environment holds a non-positive value.
const (
	defaultUploadChunkSize = 16 * 1024
	defaultUploadMaxSize   = 50 * 1024 * 1024
	defaultUploadTimeout   = 5 * time.Minute
)

// Timeout policies for upload sessions.
const (
	UploadTimeoutAbsolute = "absolute"
	UploadTimeoutIdle     = "idle"
)

type Config struct {
	ListenAddr       string
	Debug            bool
	DisableAccessLog bool
	CORSOrigins      []string

	JWTSecret       string
	TokenName       string
	TokenExpireDays int
	SecureCookie    bool

	GitHubClientID     string
	GitHubClientSecret string
	GitHubURL          string
	GitHubAPIURL       string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	SQLitePath string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	RabbitMQURL      string
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPass     string
	RabbitMQVhost    string
	RabbitMQPrefetch int

	UploadDir            string
	UploadChunkSize      int64
	UploadMaxSize        int64
	UploadSessionTimeout time.Duration
	UploadTimeoutPolicy  string

	CommentMaxDepth int
	CommentPageSize int
	ArticlePageSize int

	SiteTitle       string
	SiteDescription string
	SiteURL         string
	SiteAuthor      string
	SiteBackgrounds []string

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	MailFrom    string
	NotifyEmail string

	FriendCheckInterval    time.Duration
	FriendCheckConcurrency int
	FriendCheckRate        float64
	FriendCheckBurst       int
	FriendCheckAttempts    int
	FriendCheckTimeout     time.Duration
	FriendRetryMax         int
	FriendRetryDelays      []time.Duration

	Storage StorageConfig
}

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvPositiveInt64(key string, defaultValue int64) int64 {
	if v := getEnvInt64(key, defaultValue); v > 0 {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Load reads the configuration from the environment. The result is passed
// explicitly to every component that needs it.
func Load() *Config {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}

	policy := strings.ToLower(getEnv("UPLOAD_TIMEOUT_POLICY", UploadTimeoutAbsolute))
	if policy != UploadTimeoutIdle {
		policy = UploadTimeoutAbsolute
	}

	cfg := &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8000"),
		Debug:            getEnvBool("DEBUG", false),
		DisableAccessLog: getEnvBool("DISABLE_ACCESS_LOG", false),
		CORSOrigins:      getEnvList("CORS_ORIGINS", nil),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenName:       getEnv("TOKEN_NAME", "pw-token"),
		TokenExpireDays: getEnvInt("TOKEN_EXPIRE_DAYS", 7),
		SecureCookie:    getEnvBool("SECURE_COOKIE", false),

		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubURL:          strings.TrimRight(getEnv("GITHUB_URL", "https://github.com"), "/"),
		GitHubAPIURL:       strings.TrimRight(getEnv("GITHUB_API_URL", "https://api.github.com"), "/"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPass:     getEnv("DB_PASS", "root"),
		DBName:     getEnv("DB_NAME", "Go_Blog"),
		SQLitePath: getEnv("SQLITE_PATH", "data/blog.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),

		RabbitMQURL:      rabbitURL,
		RabbitMQHost:     rabbitHost,
		RabbitMQPort:     rabbitPort,
		RabbitMQUser:     rabbitUser,
		RabbitMQPass:     rabbitPass,
		RabbitMQVhost:    rabbitVhost,
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 8),

		UploadDir:            getEnv("UPLOAD_DIR", "assets/uploads"),
		UploadChunkSize:      getEnvPositiveInt64("UPLOAD_CHUNK_SIZE", defaultUploadChunkSize),
		UploadMaxSize:        getEnvPositiveInt64("UPLOAD_MAX_SIZE", defaultUploadMaxSize),
		UploadSessionTimeout: getEnvDuration("UPLOAD_SESSION_TIMEOUT", defaultUploadTimeout),
		UploadTimeoutPolicy:  policy,

		CommentMaxDepth: getEnvInt("COMMENT_MAX_DEPTH", 4),
		CommentPageSize: getEnvInt("COMMENT_PAGE_SIZE", 10),
		ArticlePageSize: getEnvInt("ARTICLE_PAGE_SIZE", 20),

		SiteTitle:       getEnv("SITE_TITLE", "Private Blog"),
		SiteDescription: getEnv("SITE_DESCRIPTION", ""),
		SiteURL:         strings.TrimRight(getEnv("SITE_URL", "http://localhost:8000"), "/"),
		SiteAuthor:      getEnv("SITE_AUTHOR", ""),
		SiteBackgrounds: getEnvList("SITE_BACKGROUNDS", nil),

		SMTPHost:    getEnv("SMTP_HOST", ""),
		SMTPPort:    getEnvInt("SMTP_PORT", 587),
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASS", ""),
		MailFrom:    getEnv("MAIL_FROM", ""),
		NotifyEmail: getEnv("NOTIFY_EMAIL", ""),

		FriendCheckInterval:    getEnvDuration("FRIEND_CHECK_INTERVAL", time.Hour),
		FriendCheckConcurrency: getEnvInt("FRIEND_CHECK_CONCURRENCY", 4),
		FriendCheckRate:        getEnvFloat("FRIEND_CHECK_RATE", 2),
		FriendCheckBurst:       getEnvInt("FRIEND_CHECK_BURST", 4),
		FriendCheckAttempts:    getEnvInt("FRIEND_CHECK_ATTEMPTS", 3),
		FriendCheckTimeout:     getEnvDuration("FRIEND_CHECK_TIMEOUT", 10*time.Second),
		FriendRetryMax:         getEnvInt("FRIEND_RETRY_MAX", 3),
		FriendRetryDelays: getEnvDurationList(
			"FRIEND_RETRY_DELAYS",
			[]time.Duration{30 * time.Second, 2 * time.Minute, 10 * time.Minute},
		),
	}
	if cfg.UploadSessionTimeout <= 0 {
		cfg.UploadSessionTimeout = defaultUploadTimeout
	}
	cfg.Storage = loadStorageConfig()
	return cfg
}

// Validate reports settings the server must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.Storage.Backend == StorageLocal && sameDir(c.UploadDir, c.Storage.AssetsDir) {
		errs = append(errs, errors.New("UPLOAD_DIR and ASSETS_DIR must differ"))
	}
	return errors.Join(errs...)
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// MailEnabled reports whether outgoing mail is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.NotifyEmail != ""
}

// UploadResetOnActivity reports whether accepted chunks re-arm the session timer.
func (c *Config) UploadResetOnActivity() bool {
	return c.UploadTimeoutPolicy == UploadTimeoutIdle
}
