package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Queue         QueueConfig         `mapstructure:"queue"`
	Media         MediaConfig         `mapstructure:"media"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Entity        EntityConfig        `mapstructure:"entity"`
	OCR           OCRConfig           `mapstructure:"ocr"`
	Places        PlacesConfig        `mapstructure:"places"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type QueueConfig struct {
	Concurrency        int           `mapstructure:"concurrency"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	InitialBackoff     time.Duration `mapstructure:"initial_backoff"`
	RateLimit          int           `mapstructure:"rate_limit"`
	RateWindow         time.Duration `mapstructure:"rate_window"`
	CompletedRetention time.Duration `mapstructure:"completed_retention"`
	FailedRetention    time.Duration `mapstructure:"failed_retention"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
}

type MediaConfig struct {
	FFmpegBin        string   `mapstructure:"ffmpeg_bin"`
	FFprobeBin       string   `mapstructure:"ffprobe_bin"`
	YTDLPBin         string   `mapstructure:"ytdlp_bin"`
	UploadDir        string   `mapstructure:"upload_dir"`
	MaxDurationSecs  int      `mapstructure:"max_duration_seconds"`
	MaxFileSizeBytes int64    `mapstructure:"max_file_size_bytes"`
	FrameFPS         int      `mapstructure:"frame_fps"`
	SupportedFormats []string `mapstructure:"supported_formats"`
}

type TranscriptionConfig struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type EntityConfig struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type OCRConfig struct {
	Model         string  `mapstructure:"model"`
	APIKey        string  `mapstructure:"api_key"`
	BaseURL       string  `mapstructure:"base_url"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	BatchSize     int     `mapstructure:"batch_size"`
}

type PlacesConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/reelscout.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("queue.concurrency", 2)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.initial_backoff", 60*time.Second)
	v.SetDefault("queue.rate_limit", 10)
	v.SetDefault("queue.rate_window", 60*time.Second)
	v.SetDefault("queue.completed_retention", time.Hour)
	v.SetDefault("queue.failed_retention", 24*time.Hour)
	v.SetDefault("queue.poll_interval", time.Second)
	v.SetDefault("media.ffmpeg_bin", "ffmpeg")
	v.SetDefault("media.ffprobe_bin", "ffprobe")
	v.SetDefault("media.ytdlp_bin", "yt-dlp")
	v.SetDefault("media.upload_dir", "./uploads")
	v.SetDefault("media.max_duration_seconds", 90)
	v.SetDefault("media.max_file_size_bytes", int64(100*1024*1024))
	v.SetDefault("media.frame_fps", 1)
	v.SetDefault("media.supported_formats", []string{"mp4", "mov", "avi", "webm", "mkv"})
	v.SetDefault("transcription.model", "whisper-1")
	v.SetDefault("transcription.base_url", "https://api.openai.com/v1")
	v.SetDefault("entity.model", "gpt-4o-mini")
	v.SetDefault("entity.base_url", "https://api.openai.com/v1")
	v.SetDefault("ocr.model", "gpt-4o-mini")
	v.SetDefault("ocr.base_url", "https://api.openai.com/v1")
	v.SetDefault("ocr.min_confidence", 0.6)
	v.SetDefault("ocr.batch_size", 5)
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.use_ssl", true)
	v.SetDefault("archive.bucket", "reelscout-archive")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("transcription.api_key", "OPENAI_API_KEY")
	v.BindEnv("transcription.base_url", "OPENAI_BASE_URL")
	v.BindEnv("entity.api_key", "OPENAI_API_KEY")
	v.BindEnv("entity.base_url", "OPENAI_BASE_URL")
	v.BindEnv("entity.model", "ENTITY_MODEL")
	v.BindEnv("ocr.api_key", "OPENAI_API_KEY")
	v.BindEnv("ocr.base_url", "OPENAI_BASE_URL")
	v.BindEnv("ocr.model", "OCR_MODEL")
	v.BindEnv("places.api_key", "GOOGLE_PLACES_API_KEY")
	v.BindEnv("archive.endpoint", "ARCHIVE_ENDPOINT")
	v.BindEnv("archive.access_key", "ARCHIVE_ACCESS_KEY")
	v.BindEnv("archive.secret_key", "ARCHIVE_SECRET_KEY")
	v.BindEnv("database.password", "DATABASE_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
