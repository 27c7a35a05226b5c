package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort        string
	DatabaseDSN       string
	TesseractDataPath string
	FileStoreDir      string
	LogLevel          string
	MaxFileSize       int64
	SweepInterval     time.Duration
	ProcessingTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DatabaseDSN:       getEnv("DB_DSN", "host=localhost user=income password=income dbname=income_engine port=5432 sslmode=disable"),
		TesseractDataPath: getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata"),
		FileStoreDir:      getEnv("FILE_STORE_DIR", "/var/lib/income-engine/files"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 20*1024*1024),
		SweepInterval:     time.Duration(getEnvInt64("SWEEP_INTERVAL_MINUTES", 10)) * time.Minute,
		ProcessingTimeout: time.Duration(getEnvInt64("PROCESSING_TIMEOUT_MINUTES", 30)) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
