package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort          string `env:"HTTP_PORT" envDefault:"8080"`
	SessionSecret     string `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTLMinutes int    `env:"SESSION_TTL_MINUTES" envDefault:"1440"`
	CookieSecure      bool   `env:"COOKIE_SECURE" envDefault:"false"`

	UserDBPath  string `env:"USER_DB_PATH" envDefault:"users.json"`
	DatabaseURL string `env:"DATABASE_URL"`

	UploadDir        string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadMB      int64  `env:"MAX_UPLOAD_MB" envDefault:"25"`
	SignupRequireOTP bool   `env:"SIGNUP_REQUIRE_OTP" envDefault:"true"`

	OTPSweepIntervalSeconds int `env:"OTP_SWEEP_INTERVAL_SECONDS" envDefault:"60"`
	OTPRateLimitMax         int `env:"OTP_RATE_LIMIT_MAX" envDefault:"0"`

	DetectorConfig

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Echowipe"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	EmailAPIURL string `env:"EMAIL_API_URL"`
	EmailAPIKey string `env:"EMAIL_API_KEY"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// DetectorConfig agrupa lo necesario para construir el clasificador; la
// herramienta detect_check la carga sin el resto.
type DetectorConfig struct {
	DetectorMode           string `env:"DETECTOR_MODE" envDefault:"process"`
	DetectorPython         string `env:"DETECTOR_PYTHON" envDefault:"python3"`
	DetectorScript         string `env:"DETECTOR_SCRIPT" envDefault:"eval.py"`
	DetectorModelPath      string `env:"DETECTOR_MODEL_PATH" envDefault:"model_detection.pth"`
	DetectorURL            string `env:"DETECTOR_URL"`
	DetectorTimeoutSeconds int    `env:"DETECTOR_TIMEOUT_SECONDS" envDefault:"60"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDetectorConfig carga solo las variables DETECTOR_*.
func LoadDetectorConfig() (DetectorConfig, error) {
	var cfg DetectorConfig
	if err := env.Parse(&cfg); err != nil {
		return DetectorConfig{}, err
	}
	return cfg, nil
}

// SessionTTL devuelve la duración de la cookie de sesión.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// DetectorTimeout devuelve el tiempo máximo de una clasificación.
func (c DetectorConfig) DetectorTimeout() time.Duration {
	return time.Duration(c.DetectorTimeoutSeconds) * time.Second
}

func (c *Config) OTPSweepInterval() time.Duration {
	return time.Duration(c.OTPSweepIntervalSeconds) * time.Second
}

// MaxUploadBytes convierte MAX_UPLOAD_MB a bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
