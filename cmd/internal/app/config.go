package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// CORS policy for the HTTP surface (the WS layer has its own origin policy).
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// Per-IP sliding-window limit at the HTTP entry, distinct from the
	// per-session content-op limit inside the engine.
	HTTPRateLimit  int
	HTTPRateWindow time.Duration
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("SHAREPAL_HTTP_ADDR", "0.0.0.0:3001"),
		LogLevel:  EnvString("SHAREPAL_LOG_LEVEL", "info"),
		LogFormat: EnvString("SHAREPAL_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("SHAREPAL_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SHAREPAL_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SHAREPAL_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SHAREPAL_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SHAREPAL_HTTP_MAX_HEADER_BYTES", 1<<20),

		CORSAllowedOrigins:   EnvCSV("SHAREPAL_CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"),
		CORSAllowCredentials: EnvBool("SHAREPAL_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("SHAREPAL_CORS_MAX_AGE_SECONDS", 600),

		HTTPRateLimit:  EnvInt("SHAREPAL_HTTP_RATE_LIMIT", 100),
		HTTPRateWindow: EnvDuration("SHAREPAL_HTTP_RATE_WINDOW", time.Minute),
	}
}
