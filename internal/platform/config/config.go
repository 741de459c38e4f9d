package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, built from the environment so main stays lean.
type Config struct {
	Server   Server
	Log      Log
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Push     Push
	Storage  Storage
	Outbox   Outbox
	Dispatch Dispatch
	Limits   RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	AdminToken      string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

type Log struct {
	Level  string
	Format string
}

// Database configures the Postgres pool. An empty URL selects the in-memory stores.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DutyTypeTTL  time.Duration
}

type Kafka struct {
	Brokers     []string
	OutboxTopic string
}

// Push configures the OneSignal gateway. Missing credentials disable delivery.
type Push struct {
	OneSignalAppID  string
	OneSignalAPIKey string
	BaseURL         string
	Timeout         time.Duration
	Retries         int
}

type Storage struct {
	Backend     string
	UploadDir   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

type Outbox struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

type Dispatch struct {
	Timeout     time.Duration
	MaxInFlight int
}

// RateLimit sets per-principal sliding-window allowances. Zero disables a class.
type RateLimit struct {
	Enabled bool
	Reads   int
	Writes  int
	Window  time.Duration
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: String("GUARDHOUSE_ADDR", ":8080"),
			// Use a default for development - should be overridden in production
			JWTSigningKey:   String("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:       String("JWT_ISSUER", "guardhouse"),
			AdminToken:      os.Getenv("ADMIN_TOKEN"),
			ShutdownTimeout: Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  Duration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Log: Log{
			Level:  String("LOG_LEVEL", "info"),
			Format: String("LOG_FORMAT", "json"),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: Duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			TxTimeout:       Duration("DB_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     Int("REDIS_POOL_SIZE", 10),
			MinIdleConns: Int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  Duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  Duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: Duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			DutyTypeTTL:  Duration("DUTY_TYPE_CACHE_TTL", 10*time.Minute),
		},
		Kafka: Kafka{
			Brokers:     List("KAFKA_BROKERS"),
			OutboxTopic: String("KAFKA_OUTBOX_TOPIC", "guardhouse.outbox"),
		},
		Push: Push{
			OneSignalAppID:  os.Getenv("ONESIGNAL_APP_ID"),
			OneSignalAPIKey: os.Getenv("ONESIGNAL_API_KEY"),
			BaseURL:         String("ONESIGNAL_BASE_URL", "https://onesignal.com"),
			Timeout:         Duration("PUSH_TIMEOUT", 5*time.Second),
			Retries:         Int("PUSH_RETRIES", 2),
		},
		Storage: Storage{
			Backend:     String("STORAGE_BACKEND", "fs"),
			UploadDir:   String("UPLOAD_DIR", "uploads"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Region:    String("S3_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3PathStyle: Bool("S3_PATH_STYLE", false),
		},
		Outbox: Outbox{
			Interval:    Duration("OUTBOX_INTERVAL", 2*time.Second),
			BatchSize:   Int("OUTBOX_BATCH_SIZE", 100),
			MaxAttempts: Int("OUTBOX_MAX_ATTEMPTS", 5),
		},
		Dispatch: Dispatch{
			Timeout:     Duration("DISPATCH_TIMEOUT", 5*time.Second),
			MaxInFlight: Int("DISPATCH_MAX_IN_FLIGHT", 64),
		},
		Limits: RateLimit{
			Enabled: Bool("RATE_LIMIT_ENABLED", true),
			Reads:   Int("RATE_LIMIT_READS", 300),
			Writes:  Int("RATE_LIMIT_WRITES", 60),
			Window:  Duration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

// String returns the trimmed value of name, or def when unset or blank.
func String(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

// Int parses name as an integer, falling back to def on absence or parse failure.
func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func Bool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Duration parses Go duration syntax ("5s", "250ms").
func Duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// List splits a comma separated variable, dropping empty items.
func List(name string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
