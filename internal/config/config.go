package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string
	BaseURL  string

	CORSOrigins []string

	DBDriver      string // mongo, mysql or sqlite
	MongoURI      string
	MongoDatabase string
	DBDSN         string

	JWTSecret string
	JWTTTL    time.Duration

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	FrontendURL  string

	UploadDir    string
	GeminiAPIKey string

	AdminEmail        string
	AdminPassword     string
	AllowRegistration bool

	// StrictTransitions enforces the order lifecycle adjacency table on admin
	// status updates. When false any enum value is written as-is.
	StrictTransitions bool
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg := Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "mongo")),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "thekua"),
		DBDSN:         os.Getenv("DB_DSN"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@thekua.in"),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),

		UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		AdminEmail:        strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AllowRegistration: getEnv("ALLOW_REGISTRATION", "true") != "false",

		StrictTransitions: strings.ToLower(getEnv("ORDER_TRANSITIONS", "lenient")) == "strict",
	}

	return cfg, cfg.validate()
}

// IsDev reports whether the server runs with development defaults.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "test"
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("JWT_SECRET is required outside dev")
		}
		c.JWTSecret = "dev_only_secret_for_thekua_store"
	}

	switch c.DBDriver {
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo driver")
		}
	case "mysql", "sqlite":
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the " + c.DBDriver + " driver")
		}
	default:
		return errors.New("unknown DB_DRIVER " + strconv.Quote(c.DBDriver))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
