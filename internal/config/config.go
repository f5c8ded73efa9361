package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"news-digest-bot/internal/models"
)

// Config holds runtime configuration loaded from the environment.
type Config struct {
	TelegramToken string
	NewsAPIToken  string
	DBConnString  string
	RedisAddr     string
	Port          string
	BaseURL       string
	KeepaliveURL  string

	NewsLanguage       string
	NewsMaxResults     int
	NewsRequestsPerSec float64
	NewsRSSFallback    bool
	HeadlineLimit      int

	// Location is the zone delivery times are shown and entered in.
	Location            *time.Location
	DefaultDeliveryTime models.DeliveryTime

	RefreshStaleAfter time.Duration
	ArticleRetention  time.Duration

	UserRateLimit float64
	UserRateBurst int

	DigestCron  string
	RefreshCron string
	PruneCron   string
}

// FromEnv loads configuration from environment variables. TELEGRAM_BOT_TOKEN,
// NEWS_API_TOKEN and DATABASE_URL are required; everything else has a default.
func FromEnv() (*Config, error) {
	c := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		NewsAPIToken:  os.Getenv("NEWS_API_TOKEN"),
		DBConnString:  os.Getenv("DATABASE_URL"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		Port:          getenv("PORT", "8080"),
		BaseURL:       os.Getenv("BASE_URL"),
		KeepaliveURL:  os.Getenv("KEEPALIVE_URL"),
		NewsLanguage:  getenv("NEWS_LANGUAGE", "en"),
		DigestCron:    getenv("DIGEST_CRON", "* * * * *"),
		RefreshCron:   getenv("REFRESH_CRON", "*/10 * * * *"),
		PruneCron:     getenv("PRUNE_CRON", "30 3 * * *"),
	}
	if c.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if c.NewsAPIToken == "" {
		return nil, errors.New("NEWS_API_TOKEN is not set")
	}
	if c.DBConnString == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var err error
	if c.NewsMaxResults, err = positiveInt("NEWS_MAX_RESULTS", 10); err != nil {
		return nil, err
	}
	if c.HeadlineLimit, err = positiveInt("HEADLINE_LIMIT", 5); err != nil {
		return nil, err
	}
	if c.UserRateBurst, err = positiveInt("USER_RATE_BURST", 5); err != nil {
		return nil, err
	}
	if c.NewsRequestsPerSec, err = positiveFloat("NEWS_REQUESTS_PER_SECOND", 1); err != nil {
		return nil, err
	}
	if c.UserRateLimit, err = positiveFloat("USER_RATE_LIMIT", 1); err != nil {
		return nil, err
	}
	if c.RefreshStaleAfter, err = positiveDuration("REFRESH_STALE_AFTER", 144*time.Minute); err != nil {
		return nil, err
	}
	if c.ArticleRetention, err = positiveDuration("ARTICLE_RETENTION", 720*time.Hour); err != nil {
		return nil, err
	}

	if v := os.Getenv("NEWS_RSS_FALLBACK"); v != "" {
		if c.NewsRSSFallback, err = cast.ToBoolE(v); err != nil {
			return nil, fmt.Errorf("invalid NEWS_RSS_FALLBACK: %w", err)
		}
	}

	if c.Location, err = time.LoadLocation(getenv("DISPLAY_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	if c.DefaultDeliveryTime, err = models.ParseDeliveryTime(getenv("DEFAULT_DELIVERY_TIME", models.DefaultDeliveryTime.String())); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_DELIVERY_TIME: %w", err)
	}

	return c, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	// cast reads a leading zero as octal; settings are always decimal
	n, err := cast.ToIntE(decimal(v))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func decimal(v string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(v), "0")
	if trimmed == "" && v != "" {
		return "0"
	}
	return trimmed
}

func positiveFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func positiveDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}
