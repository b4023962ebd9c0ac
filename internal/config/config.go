package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	JWTSecret   string
	TokenMaxAge time.Duration

	// Rate Limit（公開エンドポイントのIP単位、req/min）
	RateLimitInscription int
	RateLimitConnexion   int

	// Test
	NombreQuestionsParTheme int           // parametresテーブル未設定時のフォールバック
	TempsQuestionParDefaut  int           // 秒
	ExpiryInterval          time.Duration // 期限切れセッション自動終了ジョブの間隔

	// SMTP（未設定の場合メール通知は無効）
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Twilio（未設定の場合SMS通知は無効）
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// CSV
	ExportDefaultDays int
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envは任意。存在しない場合のエラーは無視する。
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenMaxAge = getEnvDuration("TOKEN_MAX_AGE", 8*time.Hour)
	cfg.RateLimitInscription = getEnvInt("RATE_LIMIT_INSCRIPTION", 10)
	cfg.RateLimitConnexion = getEnvInt("RATE_LIMIT_CONNEXION", 20)
	cfg.NombreQuestionsParTheme = getEnvInt("NOMBRE_QUESTIONS_PAR_THEME", 5)
	cfg.TempsQuestionParDefaut = getEnvInt("TEMPS_QUESTION_PAR_DEFAUT", 120)
	cfg.ExpiryInterval = getEnvDuration("SESSION_EXPIRY_INTERVAL", time.Minute)
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = getEnvString("SMTP_PORT", "587")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.SMTPFrom = getEnvString("SMTP_FROM", cfg.SMTPUser)
	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.TwilioFromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.ExportDefaultDays = getEnvInt("EXPORT_DEFAULT_DAYS", 30)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
