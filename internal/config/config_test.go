// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewFromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, "https://elhkpn.kpk.go.id", cfg.Portal.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Portal.NavigationTimeout)
	assert.Equal(t, 15*time.Second, cfg.Portal.DetailTimeout)
	assert.Equal(t, 0.5, cfg.Portal.InteractionRate)
	assert.Equal(t, int64(10), cfg.Scrape.MaxResults)
	assert.Equal(t, 1, cfg.Scrape.RowRetries)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "json", cfg.Export.Format)
}

func TestSearchPage(t *testing.T) {
	p := PortalConfig{BaseURL: "https://elhkpn.kpk.go.id"}
	assert.Equal(t, "https://elhkpn.kpk.go.id/portal/user/login#announ", p.SearchPage())

	p.BaseURL = "https://elhkpn.kpk.go.id/"
	assert.Equal(t, "https://elhkpn.kpk.go.id/portal/user/login#announ", p.SearchPage())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing base url", func(c *Config) { c.Portal.BaseURL = "" }, "base_url"},
		{"zero timeout", func(c *Config) { c.Portal.DetailTimeout = 0 }, "timeouts"},
		{"zero interaction rate", func(c *Config) { c.Portal.InteractionRate = 0 }, "interaction_rate"},
		{"negative max results", func(c *Config) { c.Scrape.MaxResults = -1 }, "max_results"},
		{"negative row retries", func(c *Config) { c.Scrape.RowRetries = -1 }, "row_retries"},
		{"bad export format", func(c *Config) { c.Export.Format = "xml" }, "export.format"},
		{"missing output", func(c *Config) { c.Export.Output = "" }, "export.output"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestMaxResultsZeroMeansUnbounded(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Scrape.MaxResults = 0
	assert.NoError(t, cfg.Validate())
}

func TestNewFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("scrape.max_results", 25)
	v.Set("portal.detail_timeout", "3s")
	v.Set("export.format", "csv")

	cfg, err := NewFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, int64(25), cfg.Scrape.MaxResults)
	assert.Equal(t, 3*time.Second, cfg.Portal.DetailTimeout)
	assert.Equal(t, "csv", cfg.Export.Format)
}
