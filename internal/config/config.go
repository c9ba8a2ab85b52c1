// Package config loads runtime configuration: infrastructure endpoints from
// environment variables (fail-fast at startup) and user preferences from a
// JSON file. The core validates minimally; anything beyond presence and
// basic sanity belongs to the editing tooling.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yunhdeng/job-bot/internal/model"
)

// Config holds everything the pipeline needs at startup.
type Config struct {
	// Environment-sourced infrastructure endpoints. RedisURL, DatabaseURL
	// and HookURL are optional; their features are disabled when empty.
	ConfigFile    string
	BlacklistFile string
	LedgerDir     string
	CookiesDir    string
	RedisURL      string
	DatabaseURL   string
	HookURL       string
	AIAPIBase     string
	AIAPIKey      string
	AIModel       string

	File File
}

// File mirrors the JSON preferences file.
type File struct {
	Global struct {
		MaxRetries        int `json:"max_retries"`
		RetryDelaySeconds int `json:"retry_delay_seconds"`
		MinMatchScore     int `json:"min_match_score"`
	} `json:"global"`

	JobPreferences struct {
		Keywords           []string `json:"keywords"`
		Cities             []string `json:"cities"`
		ExpectedSalary     [2]int   `json:"expected_salary"`
		MaxWorkYears       int      `json:"max_work_years"`
		Education          string   `json:"education"`
		ExcludedIndustries []string `json:"excluded_industries"`
	} `json:"job_preferences"`

	Platforms map[string]Platform `json:"platforms"`

	Scheduler struct {
		CronSpecs []string `json:"cron_specs"`
	} `json:"scheduler"`

	Proxy struct {
		Candidates           []string `json:"candidates"`
		CheckIntervalSeconds int      `json:"check_interval_seconds"`
	} `json:"proxy"`

	AI struct {
		Introduce string `json:"introduce"`
	} `json:"ai"`
}

// Platform is one platform's run limits and credentials reference.
type Platform struct {
	Enabled          bool   `json:"enabled"`
	MaxPerRun        int    `json:"max_per_run"`
	DailyCap         int    `json:"daily_cap"`
	HourlyCap        int    `json:"hourly_cap"`
	MinIntervalHours int    `json:"min_interval_hours"`
	Greeting         string `json:"greeting"`
	ResumeID         string `json:"resume_id"`
}

// Load reads environment variables and the preferences file, applying
// defaults and validating the parts the pipeline depends on.
func Load() (*Config, error) {
	cfg := &Config{
		ConfigFile:    getenv("CONFIG_FILE", "config/config.json"),
		BlacklistFile: getenv("BLACKLIST_FILE", "blacklist.json"),
		LedgerDir:     getenv("LEDGER_DIR", "data"),
		CookiesDir:    getenv("COOKIES_DIR", "cookies"),
		RedisURL:      os.Getenv("REDIS_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		HookURL:       os.Getenv("HOOK_URL"),
		AIAPIBase:     getenv("AI_API_BASE", "https://api.siliconflow.com/v1"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIModel:       getenv("AI_MODEL", "Qwen/Qwen2.5-72B-Instruct"),
	}

	raw, err := os.ReadFile(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", cfg.ConfigFile, err)
	}
	if err := json.Unmarshal(raw, &cfg.File); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", cfg.ConfigFile, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	g := &c.File.Global
	if g.MaxRetries <= 0 {
		g.MaxRetries = 3
	}
	if g.RetryDelaySeconds <= 0 {
		g.RetryDelaySeconds = 5
	}
	if g.MinMatchScore <= 0 {
		g.MinMatchScore = 60
	}

	if len(c.File.Scheduler.CronSpecs) == 0 {
		c.File.Scheduler.CronSpecs = []string{"0 9 * * *", "0 14 * * *"}
	}
	if c.File.Proxy.CheckIntervalSeconds <= 0 {
		c.File.Proxy.CheckIntervalSeconds = 300
	}

	for name, p := range c.File.Platforms {
		if p.MaxPerRun <= 0 {
			p.MaxPerRun = 100
		}
		if p.DailyCap <= 0 {
			p.DailyCap = 100
		}
		if p.HourlyCap <= 0 {
			p.HourlyCap = 20
		}
		if p.MinIntervalHours <= 0 {
			p.MinIntervalHours = 4
		}
		c.File.Platforms[name] = p
	}
}

func (c *Config) validate() error {
	jp := c.File.JobPreferences
	if len(jp.Keywords) == 0 {
		return errors.New("job_preferences.keywords must not be empty")
	}
	if len(jp.Cities) == 0 {
		return errors.New("job_preferences.cities must not be empty")
	}
	if jp.ExpectedSalary[0] > jp.ExpectedSalary[1] {
		return fmt.Errorf("expected_salary range [%d, %d] is inverted",
			jp.ExpectedSalary[0], jp.ExpectedSalary[1])
	}

	enabled := 0
	for _, p := range c.File.Platforms {
		if p.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return errors.New("no platform is enabled")
	}
	return nil
}

// Pairs expands keywords × cities into the search pair list a controller
// run walks.
func (c *Config) Pairs() []model.SearchPair {
	jp := c.File.JobPreferences
	pairs := make([]model.SearchPair, 0, len(jp.Keywords)*len(jp.Cities))
	for _, kw := range jp.Keywords {
		for _, city := range jp.Cities {
			pairs = append(pairs, model.SearchPair{Keyword: kw, City: city})
		}
	}
	return pairs
}

// Preferences converts the file preferences to the model the filter engine
// consumes.
func (c *Config) Preferences() model.Preferences {
	jp := c.File.JobPreferences
	return model.Preferences{
		SalaryMin:          jp.ExpectedSalary[0],
		SalaryMax:          jp.ExpectedSalary[1],
		MaxWorkYears:       jp.MaxWorkYears,
		Education:          model.ParseEducation(jp.Education),
		ExcludedIndustries: jp.ExcludedIndustries,
	}
}

// ProxyInterval returns the proxy revalidation interval.
func (c *Config) ProxyInterval() time.Duration {
	return time.Duration(c.File.Proxy.CheckIntervalSeconds) * time.Second
}

// RetryBase returns the global base delay between retries.
func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.File.Global.RetryDelaySeconds) * time.Second
}

// LoadBlacklist reads the exclusion rules, falling back to the hard-coded
// defaults when the file is absent.
func LoadBlacklist(path string) (model.Blacklist, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.DefaultBlacklist(), nil
	}
	if err != nil {
		return model.Blacklist{}, fmt.Errorf("read blacklist %s: %w", path, err)
	}

	var bl model.Blacklist
	if err := json.Unmarshal(raw, &bl); err != nil {
		return model.Blacklist{}, fmt.Errorf("decode blacklist %s: %w", path, err)
	}
	return bl, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
