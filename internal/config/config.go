package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Collector CollectorConfig
	Detector  DetectorConfig
	Scheduler SchedulerConfig
	Stream    StreamConfig
	Notifier  NotifierConfig
}

type ServerConfig struct {
	Port             string
	CORSAllowOrigins []string
}

// AuthConfig - 외부 인증 컴포넌트가 발급한 access token 검증용
// JWTSecret이 비어 있으면 API 인증을 하지 않는다
type AuthConfig struct {
	JWTSecret string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

// RedisConfig - 집계 결과 캐시 (Addr가 비어 있으면 캐시 비활성)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type CollectorConfig struct {
	Command   string
	Interface string
	Timeout   time.Duration

	// fallback 합성 데이터 범위 (bytes)
	SyntheticRxMin uint64
	SyntheticRxMax uint64
	SyntheticTxMin uint64
	SyntheticTxMax uint64
}

type DetectorConfig struct {
	Window          time.Duration
	SpikeFactor     float64
	DemoProbability float64
}

// SchedulerConfig - 0이면 해당 주기 작업 비활성
type SchedulerConfig struct {
	CollectInterval time.Duration
	DetectInterval  time.Duration
}

type StreamConfig struct {
	QueueSize    int
	SendBuffer   int
	DemoInterval time.Duration
}

// NotifierConfig - 알림 webhook 전송 (URL이 없으면 비활성)
type NotifierConfig struct {
	WebhookURLs []string
	Body        string // 비어 있으면 template.DefaultBody
	MinSeverity string
	Timeout     time.Duration
}

func Load() Config {
	// .env 파일은 선택 사항 (없으면 환경변수만 사용)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	return Config{
		Server: ServerConfig{
			Port:             getenv("PORT", "8080"),
			CORSAllowOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
			TTL:      getenvDuration("SUMMARY_CACHE_TTL", 30*time.Second),
		},
		Collector: CollectorConfig{
			Command:        getenv("WG_COMMAND", "wg"),
			Interface:      getenv("WG_INTERFACE", "all"),
			Timeout:        getenvDuration("WG_TIMEOUT", 10*time.Second),
			SyntheticRxMin: getenvUint("SYNTH_RX_MIN", 1<<20),
			SyntheticRxMax: getenvUint("SYNTH_RX_MAX", 100<<20),
			SyntheticTxMin: getenvUint("SYNTH_TX_MIN", 512<<10),
			SyntheticTxMax: getenvUint("SYNTH_TX_MAX", 50<<20),
		},
		Detector: DetectorConfig{
			Window:          getenvDuration("DETECT_WINDOW", 5*time.Minute),
			SpikeFactor:     getenvFloat("DETECT_SPIKE_FACTOR", 10),
			DemoProbability: getenvFloat("DETECT_DEMO_PROBABILITY", 0.3),
		},
		Scheduler: SchedulerConfig{
			CollectInterval: getenvDuration("COLLECT_INTERVAL", 30*time.Second),
			DetectInterval:  getenvDuration("DETECT_INTERVAL", time.Minute),
		},
		Stream: StreamConfig{
			QueueSize:    getenvInt("STREAM_QUEUE_SIZE", 256),
			SendBuffer:   getenvInt("STREAM_SEND_BUFFER", 32),
			DemoInterval: getenvDuration("STREAM_DEMO_INTERVAL", 0),
		},
		Notifier: NotifierConfig{
			WebhookURLs: splitList(os.Getenv("ALERT_WEBHOOK_URLS")),
			Body:        os.Getenv("ALERT_WEBHOOK_BODY"),
			MinSeverity: getenv("ALERT_WEBHOOK_MIN_SEVERITY", "warning"),
			Timeout:     getenvDuration("ALERT_WEBHOOK_TIMEOUT", 10*time.Second),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, val, fallback)
		return fallback
	}
	return n
}

func getenvUint(key string, fallback uint64) uint64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, val, fallback)
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %v", key, val, fallback)
		return fallback
	}
	return f
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %s", key, val, fallback)
		return fallback
	}
	return d
}

func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
