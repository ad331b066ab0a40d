package config

import (
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/cowin-slot-notifier/src/model"
	"github.com/cowin-slot-notifier/src/scheduler"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISTRICT_IDS", "276, 265,,294")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "district", cfg.Search.Mode)
	assert.Equal(t, []string{"276", "265", "294"}, cfg.Search.DistrictIDs)
	assert.Equal(t, 20, cfg.Search.NextNDays)
	assert.Equal(t, 18, cfg.Search.MinAgeLimit)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.Host)
	assert.Equal(t, 465, cfg.Email.Port)
	assert.Equal(t, 100, cfg.Cache.Size)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Nil(t, cfg.Search.Latitude)
	assert.False(t, cfg.ArchiveEnabled())
	assert.False(t, cfg.SharedCacheEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_RejectsMalformedNumbers(t *testing.T) {
	t.Setenv("NEXT_N_DAYS", "twenty")
	t.Setenv("CURRENT_LAT", "north")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "NEXT_N_DAYS")
	assert.Contains(t, err.Error(), "CURRENT_LAT")
}

func TestValidate(t *testing.T) {
	lat, long, dist := 12.9, 77.6, 10.0
	zero := 0.0

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "District mode with ids",
			mutate: func(c *Config) {},
		},
		{
			name:    "District mode without ids",
			mutate:  func(c *Config) { c.Search.DistrictIDs = nil },
			wantErr: "DISTRICT_IDS",
		},
		{
			name:    "Pincode mode without pincodes",
			mutate:  func(c *Config) { c.Search.Mode = "pincode" },
			wantErr: "PINCODES",
		},
		{
			name:    "Unknown mode",
			mutate:  func(c *Config) { c.Search.Mode = "state" },
			wantErr: "invalid search mode",
		},
		{
			name:    "Zero days",
			mutate:  func(c *Config) { c.Search.NextNDays = 0 },
			wantErr: "NEXT_N_DAYS",
		},
		{
			name:    "Partial geo filter",
			mutate:  func(c *Config) { c.Search.Latitude = &lat },
			wantErr: "must be set together",
		},
		{
			name: "Non positive distance",
			mutate: func(c *Config) {
				c.Search.Latitude, c.Search.Longitude, c.Search.MaxDistanceKm = &lat, &long, &zero
			},
			wantErr: "MAX_DISTANCE_KM must be positive",
		},
		{
			name: "Complete geo filter",
			mutate: func(c *Config) {
				c.Search.Latitude, c.Search.Longitude, c.Search.MaxDistanceKm = &lat, &long, &dist
			},
		},
		{
			name:    "Email recipients without sender",
			mutate:  func(c *Config) { c.Email.Recipients = []string{"a@example.com"} },
			wantErr: "SENDER_EMAIL",
		},
		{
			name:    "Telegram chats without token",
			mutate:  func(c *Config) { c.Telegram.ChatIDs = []string{"42"} },
			wantErr: "TELEGRAM_BOT_TOKEN",
		},
		{
			name:    "Sms recipients without credentials",
			mutate:  func(c *Config) { c.SMS.Recipients = []string{"+15550000000"} },
			wantErr: "TWILIO_ACCOUNT_SID",
		},
		{
			name:    "Malformed schedule",
			mutate:  func(c *Config) { c.App.Schedule = "every now and then" },
			wantErr: "SCHEDULE",
		},
		{
			name:   "Descriptor schedule",
			mutate: func(c *Config) { c.App.Schedule = "@every 20m" },
		},
		{
			name:    "Bad failure policy",
			mutate:  func(c *Config) { c.Search.FailurePolicy = "sometimes" },
			wantErr: "invalid failure policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestQuery_ModeDefaults(t *testing.T) {
	cfg := validConfig()
	q, err := cfg.Query()
	require.NoError(t, err)
	assert.Equal(t, model.District, q.Kind)
	assert.Equal(t, []string{"276"}, q.Keys)
	assert.Equal(t, scheduler.ContinueOnError, q.Policy)
	assert.False(t, q.StopAtFirstMatchingDate)
	assert.Nil(t, q.Geo)

	cfg.Search.Mode = "pincode"
	cfg.Search.Pincodes = []string{"560076"}
	q, err = cfg.Query()
	require.NoError(t, err)
	assert.Equal(t, model.Pincode, q.Kind)
	assert.Equal(t, []string{"560076"}, q.Keys)
	assert.Equal(t, scheduler.AbortOnError, q.Policy)
	assert.True(t, q.StopAtFirstMatchingDate)
}

func TestQuery_Overrides(t *testing.T) {
	lat, long, dist := 12.9, 77.6, 10.0
	stop := true

	cfg := validConfig()
	cfg.Search.FailurePolicy = "abort"
	cfg.Search.StopAtFirstMatchingDate = &stop
	cfg.Search.Latitude, cfg.Search.Longitude, cfg.Search.MaxDistanceKm = &lat, &long, &dist

	q, err := cfg.Query()
	require.NoError(t, err)
	assert.Equal(t, scheduler.AbortOnError, q.Policy)
	assert.True(t, q.StopAtFirstMatchingDate)
	require.NotNil(t, q.Geo)
	assert.Equal(t, 12.9, q.Geo.Origin.Latitude)
	assert.Equal(t, 77.6, q.Geo.Origin.Longitude)
	assert.Equal(t, 10.0, q.Geo.MaxDistanceKm)
}

func TestBindFlags_OverridesEnvironment(t *testing.T) {
	cfg := validConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(fs)

	err := fs.Parse([]string{"-mode", "pincode", "-pincodes", "560076,562106", "-days", "3", "-schedule", "*/5 * * * *"})
	require.NoError(t, err)

	assert.Equal(t, "pincode", cfg.Search.Mode)
	assert.Equal(t, []string{"560076", "562106"}, cfg.Search.Pincodes)
	assert.Equal(t, 3, cfg.Search.NextNDays)
	assert.Equal(t, "*/5 * * * *", cfg.App.Schedule)
	assert.Equal(t, []string{"276"}, cfg.Search.DistrictIDs)
}

func TestRecipients(t *testing.T) {
	cfg := validConfig()
	cfg.Email.Recipients = []string{"a@example.com", "b@example.com"}
	cfg.Telegram.ChatIDs = []string{"42"}
	assert.Equal(t, 3, cfg.Recipients())
}

func validConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Mode:        "district",
			DistrictIDs: []string{"276"},
			NextNDays:   20,
			MinAgeLimit: 18,
		},
		Cache: CacheConfig{Size: 100, TTL: 30 * time.Minute},
	}
}
