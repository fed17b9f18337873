// Package config загружает конфигурацию сервера repairdesk:
// значения по умолчанию, YAML-файл и переменные окружения REPAIRDESK_*.
package config

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "REPAIRDESK_"

// Config конфигурация сервера
type Config struct {
	Logger   LoggerConfig   `yaml:"logger"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Security SecurityConfig `yaml:"security"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// LoggerConfig уровень (debug, info, warn, error) и формат (text, json) логов
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig адрес HTTP-сервера.
// TrustProxyHeaders включать только за reverse proxy, который перезаписывает X-Forwarded-For.
type ServerConfig struct {
	Address           string `yaml:"address"`
	TrustProxyHeaders bool   `yaml:"trust_proxy_headers"`
}

// DatabaseConfig путь к файлу SQLite
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// JWTConfig проверка токенов мастерских
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	Leeway time.Duration `yaml:"leeway"`
}

// SecurityConfig ключ шифрования и параметры сессий POS.
// Пустой EncryptionKey - ключ выводится из fingerprint процесса.
type SecurityConfig struct {
	EncryptionKey string        `yaml:"encryption_key"` // base64, 32 байта
	VersionSalt   string        `yaml:"version_salt"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// CatalogConfig базовый каталог, импортируемый при старте
type CatalogConfig struct {
	SeedPath string `yaml:"seed_path"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Database: DatabaseConfig{
			Path: "repairdesk.db",
		},
		JWT: JWTConfig{
			Leeway: 30 * time.Second,
		},
		Security: SecurityConfig{
			VersionSalt: "repairdesk-v1",
			SessionTTL:  24 * time.Hour,
		},
	}
}

// Load загружает конфигурацию в порядке приоритета:
// 1. значения по умолчанию
// 2. файл (если указан)
// 3. переменные окружения
// 4. валидация
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadFromEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	content, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return err
	}

	// Неизвестные ключи - ошибка
	if err := yaml.UnmarshalStrict(content, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

type lookupFunc func(key string) (string, bool)

func loadFromEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("LOG_LEVEL", &cfg.Logger.Level)
	str("LOG_FORMAT", &cfg.Logger.Format)
	str("ADDRESS", &cfg.Server.Address)
	str("DB_PATH", &cfg.Database.Path)
	str("JWT_SECRET", &cfg.JWT.Secret)
	str("JWT_ISSUER", &cfg.JWT.Issuer)
	str("ENCRYPTION_KEY", &cfg.Security.EncryptionKey)
	str("VERSION_SALT", &cfg.Security.VersionSalt)
	str("CATALOG_SEED", &cfg.Catalog.SeedPath)

	if v, ok := lookup(EnvPrefix + "TRUST_PROXY_HEADERS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sTRUST_PROXY_HEADERS: %w", EnvPrefix, err)
		}
		cfg.Server.TrustProxyHeaders = b
	}

	if err := dur("JWT_LEEWAY", &cfg.JWT.Leeway); err != nil {
		return err
	}
	return dur("SESSION_TTL", &cfg.Security.SessionTTL)
}

// Validate проверяет обязательные поля и допустимые значения
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Logger.Level); err != nil {
		return err
	}
	switch c.Logger.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logger.format must be one of: text, json")
	}

	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.JWT.Leeway < 0 {
		return fmt.Errorf("jwt.leeway must not be negative")
	}

	if c.Security.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.Security.EncryptionKey)
		if err != nil {
			return fmt.Errorf("security.encryption_key must be base64: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("security.encryption_key must be 32 bytes, got %d", len(key))
		}
	}
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("security.session_ttl must be positive")
	}

	return nil
}

// ParseLevel переводит имя уровня в slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logger.level must be one of: debug, info, warn, error")
	}
}

// NewLogger создает slog.Logger по настройкам логгера
func NewLogger(cfg LoggerConfig, w io.Writer) *slog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
