// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// ID группового чата, в котором живёт игровой мир
	GameChatID int64 `envconfig:"GAME_CHAT_ID" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"xiuxian_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Закрытие (обычное уединение) ---
	ClosingDuration time.Duration `envconfig:"CLOSING_DURATION" default:"60s"`
	ClosingCooldown time.Duration `envconfig:"CLOSING_COOLDOWN" default:"60s"`
	ClosingBaseExp  int64         `envconfig:"CLOSING_BASE_EXP" default:"10"`

	// --- Глубокое закрытие ---
	DeepClosingDuration time.Duration `envconfig:"DEEP_CLOSING_DURATION" default:"8h"`
	DeepClosingCooldown time.Duration `envconfig:"DEEP_CLOSING_COOLDOWN" default:"22h"`
	// Доля от пропорциональной награды при досрочном выходе
	DeepEarlyExitFactor float64 `envconfig:"DEEP_EARLY_EXIT_FACTOR" default:"0.7"`

	// --- Сбор ресурсов ---
	CollectDurationPerUnit time.Duration `envconfig:"COLLECT_DURATION_PER_UNIT" default:"30s"`
	CollectMaxPerTask      int64         `envconfig:"COLLECT_MAX_PER_TASK" default:"10"`

	// --- Арена ---
	BattleCooldown time.Duration `envconfig:"BATTLE_COOLDOWN" default:"5m"`

	// --- Боссы ---
	BossLifetime time.Duration `envconfig:"BOSS_LIFETIME" default:"2h"`

	// --- Секты ---
	SectBetrayalCooldown time.Duration `envconfig:"SECT_BETRAYAL_COOLDOWN" default:"4h"`

	// --- Фоновые задачи ---
	// Cron-выражение периодической развёртки отложенных задач
	SweepSpec string `envconfig:"SWEEP_SPEC" default:"* * * * *"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureBossEnabled  bool `envconfig:"FEATURE_BOSS_ENABLED" default:"true"`
	FeatureSectsEnabled bool `envconfig:"FEATURE_SECTS_ENABLED" default:"true"`
	FeatureArenaEnabled bool `envconfig:"FEATURE_ARENA_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.GameChatID == 0 {
		return fmt.Errorf("GAME_CHAT_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.ClosingDuration <= 0 || c.DeepClosingDuration <= 0 {
		return fmt.Errorf("длительности закрытия должны быть > 0")
	}
	if c.DeepEarlyExitFactor <= 0 || c.DeepEarlyExitFactor > 1 {
		return fmt.Errorf("DEEP_EARLY_EXIT_FACTOR должен быть в (0, 1]")
	}
	if c.CollectMaxPerTask <= 0 {
		return fmt.Errorf("COLLECT_MAX_PER_TASK должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
