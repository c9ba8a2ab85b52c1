package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhdeng/job-bot/internal/config"
	"github.com/yunhdeng/job-bot/internal/model"
)

const minimalConfig = `{
	"job_preferences": {
		"keywords": ["golang", "后端开发"],
		"cities": ["上海", "北京"],
		"expected_salary": [15, 30],
		"max_work_years": 5,
		"education": "本科"
	},
	"platforms": {
		"boss": {"enabled": true}
	}
}`

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, minimalConfig)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.File.Global.MaxRetries)
	assert.Equal(t, 60, cfg.File.Global.MinMatchScore)
	assert.Equal(t, []string{"0 9 * * *", "0 14 * * *"}, cfg.File.Scheduler.CronSpecs)

	boss := cfg.File.Platforms["boss"]
	assert.Equal(t, 100, boss.DailyCap)
	assert.Equal(t, 20, boss.HourlyCap)
	assert.Equal(t, 4, boss.MinIntervalHours)
}

func TestLoadExpandsSearchPairs(t *testing.T) {
	writeConfig(t, minimalConfig)

	cfg, err := config.Load()
	require.NoError(t, err)

	pairs := cfg.Pairs()
	assert.Len(t, pairs, 4)
	assert.Contains(t, pairs, model.SearchPair{Keyword: "golang", City: "北京"})
	assert.Contains(t, pairs, model.SearchPair{Keyword: "后端开发", City: "上海"})
}

func TestLoadBuildsPreferences(t *testing.T) {
	writeConfig(t, minimalConfig)

	cfg, err := config.Load()
	require.NoError(t, err)

	prefs := cfg.Preferences()
	assert.Equal(t, 15, prefs.SalaryMin)
	assert.Equal(t, 30, prefs.SalaryMax)
	assert.Equal(t, model.EducationBachelor, prefs.Education)
}

func TestLoadRejectsEmptyKeywords(t *testing.T) {
	writeConfig(t, `{
		"job_preferences": {"keywords": [], "cities": ["上海"], "expected_salary": [15, 30]},
		"platforms": {"boss": {"enabled": true}}
	}`)

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvertedSalary(t *testing.T) {
	writeConfig(t, `{
		"job_preferences": {"keywords": ["go"], "cities": ["上海"], "expected_salary": [30, 15]},
		"platforms": {"boss": {"enabled": true}}
	}`)

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRequiresAnEnabledPlatform(t *testing.T) {
	writeConfig(t, `{
		"job_preferences": {"keywords": ["go"], "cities": ["上海"], "expected_salary": [15, 30]},
		"platforms": {"boss": {"enabled": false}}
	}`)

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadBlacklistFallsBackWhenAbsent(t *testing.T) {
	bl, err := config.LoadBlacklist(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultBlacklist(), bl)
}

func TestLoadBlacklistReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"companies": ["BadCo"],
		"recruiters": ["猎头"],
		"keywords": ["外包"]
	}`), 0o644))

	bl, err := config.LoadBlacklist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BadCo"}, bl.Companies)
}
