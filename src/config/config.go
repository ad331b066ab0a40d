package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/multierr"

	"github.com/cowin-slot-notifier/src/cache"
	"github.com/cowin-slot-notifier/src/geo"
	model "github.com/cowin-slot-notifier/src/model"
	"github.com/cowin-slot-notifier/src/notify"
	"github.com/cowin-slot-notifier/src/scheduler"
)

// ErrInvalidConfig wraps every configuration problem.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Search   SearchConfig
	Email    EmailConfig
	Telegram TelegramConfig
	SMS      SMSConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Cache    CacheConfig
}

// AppConfig holds process level settings
type AppConfig struct {
	Env      string
	LogLevel string
	Schedule string

	// StatusAddr serves a health endpoint while scheduling. Empty disables it.
	StatusAddr string
}

// SearchConfig describes what a polling pass looks for
type SearchConfig struct {
	Mode        string
	DistrictIDs []string
	Pincodes    []string
	NextNDays   int
	MinAgeLimit int

	// Empty means the default of the search mode.
	FailurePolicy           string
	StopAtFirstMatchingDate *bool

	Latitude      *float64
	Longitude     *float64
	MaxDistanceKm *float64
}

// EmailConfig holds SMTP sink configuration
type EmailConfig struct {
	Sender     string
	Password   string
	Host       string
	Port       int
	Recipients []string
}

// TelegramConfig holds Telegram sink configuration
type TelegramConfig struct {
	BotToken string
	ChatIDs  []string
}

// SMSConfig holds Twilio sink configuration
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	Recipients []string
}

// RedisConfig holds the shared response cache connection
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// DatabaseConfig holds the archive connection
type DatabaseConfig struct {
	Host           string
	User           string
	Password       string
	Name           string
	RetentionHours int
}

// CacheConfig holds the response cache bounds
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var errs error
	collect := func(err error) {
		errs = multierr.Append(errs, err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "production"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Schedule: getEnv("SCHEDULE", ""),

			StatusAddr: getEnv("STATUS_ADDR", ""),
		},
		Search: SearchConfig{
			Mode:          getEnv("SEARCH_MODE", model.District.String()),
			DistrictIDs:   getEnvAsList("DISTRICT_IDS"),
			Pincodes:      getEnvAsList("PINCODES"),
			FailurePolicy: getEnv("FAILURE_POLICY", ""),
		},
		Email: EmailConfig{
			Sender:     getEnv("SENDER_EMAIL", ""),
			Password:   getEnv("SENDER_PASSWORD", ""),
			Host:       getEnv("SMTP_HOST", notify.DefaultSMTPHost),
			Recipients: getEnvAsList("EMAIL_RECIPIENTS"),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatIDs:  getEnvAsList("TELEGRAM_CHAT_IDS"),
		},
		SMS: SMSConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			From:       getEnv("TWILIO_FROM_NUMBER", ""),
			Recipients: getEnvAsList("SMS_RECIPIENTS"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "cowin"),
		},
	}

	var err error
	cfg.Search.NextNDays, err = getEnvAsInt("NEXT_N_DAYS", 20)
	collect(err)
	cfg.Search.MinAgeLimit, err = getEnvAsInt("MIN_AGE_LIMIT", 18)
	collect(err)
	cfg.Search.StopAtFirstMatchingDate, err = getEnvAsOptionalBool("STOP_AT_FIRST_MATCHING_DATE")
	collect(err)
	cfg.Search.Latitude, err = getEnvAsOptionalFloat("CURRENT_LAT")
	collect(err)
	cfg.Search.Longitude, err = getEnvAsOptionalFloat("CURRENT_LONG")
	collect(err)
	cfg.Search.MaxDistanceKm, err = getEnvAsOptionalFloat("MAX_DISTANCE_KM")
	collect(err)
	cfg.Email.Port, err = getEnvAsInt("SMTP_PORT", notify.DefaultSMTPPort)
	collect(err)
	cfg.Redis.Port, err = getEnvAsInt("REDIS_PORT", 6379)
	collect(err)
	cfg.Database.RetentionHours, err = getEnvAsInt("ARCHIVE_RETENTION_HOURS", 0)
	collect(err)
	cfg.Cache.Size, err = getEnvAsInt("CACHE_SIZE", cache.DefaultSize)
	collect(err)
	ttlMinutes, err := getEnvAsInt("CACHE_TTL_MINUTES", int(cache.DefaultTTL/time.Minute))
	collect(err)
	cfg.Cache.TTL = time.Duration(ttlMinutes) * time.Minute

	if errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	return cfg, nil
}

// BindFlags lets command-line flags override the loaded values.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Search.Mode, "mode", c.Search.Mode, "search mode: district or pincode")
	fs.Var((*listValue)(&c.Search.DistrictIDs), "districts", "comma separated district ids")
	fs.Var((*listValue)(&c.Search.Pincodes), "pincodes", "comma separated pincodes")
	fs.IntVar(&c.Search.NextNDays, "days", c.Search.NextNDays, "number of days to search from today")
	fs.IntVar(&c.Search.MinAgeLimit, "min-age", c.Search.MinAgeLimit, "minimum age limit of wanted sessions")
	fs.StringVar(&c.Search.FailurePolicy, "failure-policy", c.Search.FailurePolicy, "continue or abort on a failed fetch")
	fs.StringVar(&c.App.Schedule, "schedule", c.App.Schedule, "cron spec for repeated passes")
	fs.StringVar(&c.App.LogLevel, "log-level", c.App.LogLevel, "log level")
	fs.StringVar(&c.App.StatusAddr, "status-addr", c.App.StatusAddr, "address of the health endpoint while scheduling")
}

// Validate reports every problem with the search and sink settings.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	kind, err := model.ParseLocationKind(c.Search.Mode)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	switch {
	case err != nil:
	case kind == model.District && len(c.Search.DistrictIDs) == 0:
		add("DISTRICT_IDS is required in district mode")
	case kind == model.Pincode && len(c.Search.Pincodes) == 0:
		add("PINCODES is required in pincode mode")
	}

	if c.Search.NextNDays <= 0 {
		add("NEXT_N_DAYS must be positive, got %d", c.Search.NextNDays)
	}
	if c.Search.MinAgeLimit < 0 {
		add("MIN_AGE_LIMIT must not be negative, got %d", c.Search.MinAgeLimit)
	}
	if c.Search.FailurePolicy != "" {
		if _, err := scheduler.ParseFailurePolicy(c.Search.FailurePolicy); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	geoSet := 0
	for _, v := range []*float64{c.Search.Latitude, c.Search.Longitude, c.Search.MaxDistanceKm} {
		if v != nil {
			geoSet++
		}
	}
	if geoSet != 0 && geoSet != 3 {
		add("CURRENT_LAT, CURRENT_LONG and MAX_DISTANCE_KM must be set together")
	}
	if c.Search.MaxDistanceKm != nil && *c.Search.MaxDistanceKm <= 0 {
		add("MAX_DISTANCE_KM must be positive, got %g", *c.Search.MaxDistanceKm)
	}

	if len(c.Email.Recipients) > 0 && (c.Email.Sender == "" || c.Email.Password == "") {
		add("SENDER_EMAIL and SENDER_PASSWORD are required for email recipients")
	}
	if len(c.Telegram.ChatIDs) > 0 && c.Telegram.BotToken == "" {
		add("TELEGRAM_BOT_TOKEN is required for telegram chats")
	}
	if len(c.SMS.Recipients) > 0 && (c.SMS.AccountSID == "" || c.SMS.AuthToken == "" || c.SMS.From == "") {
		add("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER are required for sms recipients")
	}
	if c.App.Schedule != "" {
		if _, err := cron.Parse(c.App.Schedule); err != nil {
			add("SCHEDULE %q is not a valid cron spec: %v", c.App.Schedule, err)
		}
	}
	if c.Cache.Size <= 0 {
		add("CACHE_SIZE must be positive, got %d", c.Cache.Size)
	}
	if c.Cache.TTL <= 0 {
		add("CACHE_TTL_MINUTES must be positive")
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	return nil
}

// Query builds the polling pass described by the search settings. District
// searches keep scanning past failures; pincode searches abort on the first
// failure and stop at the first date with matches. Both can be overridden.
func (c *Config) Query() (scheduler.Query, error) {
	kind, err := model.ParseLocationKind(c.Search.Mode)
	if err != nil {
		return scheduler.Query{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	q := scheduler.Query{
		Kind:        kind,
		Days:        c.Search.NextNDays,
		MinAgeLimit: c.Search.MinAgeLimit,
		Policy:      scheduler.ContinueOnError,
	}
	if kind == model.Pincode {
		q.Keys = c.Search.Pincodes
		q.Policy = scheduler.AbortOnError
		q.StopAtFirstMatchingDate = true
	} else {
		q.Keys = c.Search.DistrictIDs
	}

	if c.Search.FailurePolicy != "" {
		q.Policy, err = scheduler.ParseFailurePolicy(c.Search.FailurePolicy)
		if err != nil {
			return scheduler.Query{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if c.Search.StopAtFirstMatchingDate != nil {
		q.StopAtFirstMatchingDate = *c.Search.StopAtFirstMatchingDate
	}

	if c.Search.Latitude != nil && c.Search.Longitude != nil && c.Search.MaxDistanceKm != nil {
		q.Geo = &scheduler.GeoFilter{
			Origin:        geo.Coordinate{Latitude: *c.Search.Latitude, Longitude: *c.Search.Longitude},
			MaxDistanceKm: *c.Search.MaxDistanceKm,
		}
	}
	return q, nil
}

// Recipients is the number of configured notification targets.
func (c *Config) Recipients() int {
	return len(c.Email.Recipients) + len(c.Telegram.ChatIDs) + len(c.SMS.Recipients)
}

// ArchiveEnabled reports whether delivered rows are archived.
func (c *Config) ArchiveEnabled() bool {
	return c.Database.Host != ""
}

// SharedCacheEnabled reports whether responses are cached in Redis.
func (c *Config) SharedCacheEnabled() bool {
	return c.Redis.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return intVal, nil
}

func getEnvAsOptionalFloat(key string) (*float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}
	floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", key, value)
	}
	return &floatVal, nil
}

func getEnvAsOptionalBool(key string) (*bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}
	boolVal, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a boolean", key, value)
	}
	return &boolVal, nil
}

func getEnvAsList(key string) []string {
	return splitList(os.Getenv(key))
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

type listValue []string

func (l *listValue) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *listValue) Set(value string) error {
	*l = splitList(value)
	return nil
}
