package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"freight-settlement-service/internal/platform/pdf"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from defaults, then the
// optional YAML file named by CONFIG_PATH, then environment variables.
type Config struct {
	Port        string `yaml:"port"`
	DBDriver    string `yaml:"db_driver"`
	DBPath      string `yaml:"db_path"`
	DatabaseURL string `yaml:"database_url"`
	SeedPath    string `yaml:"seed_path"`

	RedisAddr    string        `yaml:"redis_addr"`
	RateCacheTTL time.Duration `yaml:"rate_cache_ttl"`

	MaxUploadFiles int   `yaml:"max_upload_files"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	PDF PDFConfig `yaml:"pdf"`
}

type PDFConfig struct {
	FontSize        float64 `yaml:"font_size"`
	Leading         float64 `yaml:"leading"`
	MarginLeft      float64 `yaml:"margin_left"`
	MarginTop       float64 `yaml:"margin_top"`
	PageWidth       float64 `yaml:"page_width"`
	PageHeight      float64 `yaml:"page_height"`
	MaxCharsPerLine int     `yaml:"max_chars_per_line"`
}

// Options converts the section into writer options.
func (p PDFConfig) Options() pdf.Options {
	return pdf.Options{
		FontSize:        p.FontSize,
		Leading:         p.Leading,
		MarginLeft:      p.MarginLeft,
		MarginTop:       p.MarginTop,
		PageWidth:       p.PageWidth,
		PageHeight:      p.PageHeight,
		MaxCharsPerLine: p.MaxCharsPerLine,
	}
}

func Default() Config {
	o := pdf.DefaultOptions()
	return Config{
		Port:           "3001",
		DBDriver:       "sqlite",
		DBPath:         "data/frete.db",
		SeedPath:       "data/seeds/rates.json",
		RateCacheTTL:   10 * time.Minute,
		MaxUploadFiles: 20,
		MaxUploadBytes: 10 << 20,
		PDF: PDFConfig{
			FontSize:        o.FontSize,
			Leading:         o.Leading,
			MarginLeft:      o.MarginLeft,
			MarginTop:       o.MarginTop,
			PageWidth:       o.PageWidth,
			PageHeight:      o.PageHeight,
			MaxCharsPerLine: o.MaxCharsPerLine,
		},
	}
}

// Load builds the configuration and validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("load config: parse %q: %w", path, err)
		}
	}

	cfg.Port = Get("PORT", cfg.Port)
	cfg.DBDriver = Get("DB_DRIVER", cfg.DBDriver)
	cfg.DBPath = Get("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = Get("DATABASE_URL", cfg.DatabaseURL)
	cfg.SeedPath = Get("SEED_PATH", cfg.SeedPath)
	cfg.RedisAddr = Get("REDIS_ADDR", cfg.RedisAddr)
	cfg.RateCacheTTL = getDuration("RATE_CACHE_TTL", cfg.RateCacheTTL)
	cfg.MaxUploadFiles = getInt("MAX_UPLOAD_FILES", cfg.MaxUploadFiles)
	cfg.MaxUploadBytes = int64(getInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))
	cfg.PDF.FontSize = getFloat("PDF_FONT_SIZE", cfg.PDF.FontSize)
	cfg.PDF.Leading = getFloat("PDF_LEADING", cfg.PDF.Leading)
	cfg.PDF.MaxCharsPerLine = getInt("PDF_MAX_CHARS", cfg.PDF.MaxCharsPerLine)

	// A DATABASE_URL without an explicit driver means postgres.
	if cfg.DatabaseURL != "" && os.Getenv("DB_DRIVER") == "" && cfg.DBDriver == "sqlite" {
		cfg.DBDriver = "postgres"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			errs = append(errs, errors.New("db_path is required for sqlite"))
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported db_driver %q", c.DBDriver))
	}

	if c.PDF.FontSize <= 0 || c.PDF.Leading <= 0 || c.PDF.MaxCharsPerLine <= 0 {
		errs = append(errs, errors.New("pdf font_size, leading and max_chars_per_line must be positive"))
	}
	if c.PDF.PageHeight <= 0 || c.PDF.PageWidth <= 0 {
		errs = append(errs, errors.New("pdf page size must be positive"))
	}
	if c.MaxUploadFiles < 1 {
		errs = append(errs, errors.New("max_upload_files must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
