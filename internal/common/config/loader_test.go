package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
database:
  postgres:
    host: localhost
    database: recruitment
    user: ${TEST_DB_USER}
  redis:
    address: localhost:6379
auth:
  keycloak:
    url: http://localhost:8081
    realm: recruitment
workers:
  notify-recruiter:
    enabled: true
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_USER", "portal")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "portal", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "applicant-intake", cfg.Camunda.ProcessID)
	assert.Equal(t, int64(2*1024*1024), cfg.Intake.MaxFileBytes)
	assert.Equal(t, 20, cfg.Dashboard.PageSize)
	assert.Equal(t, "Asia/Jakarta", cfg.Dashboard.Timezone)
	assert.Equal(t, "recruitment-admin", cfg.Auth.Keycloak.AdminRole)
	assert.Equal(t, "applicants", cfg.Database.Elasticsearch.Index)

	w := cfg.Workers["notify-recruiter"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
}

func TestLoadFromFile_RejectsMissingDatabase(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, `
auth:
  keycloak:
    url: http://localhost:8081
    realm: recruitment
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.postgres.host")
}

func TestLoadFromFile_CamundaNeedsBroker(t *testing.T) {
	t.Setenv("TEST_DB_USER", "portal")

	_, err := LoadFromFile(writeConfig(t, minimalConfig+`
camunda:
  enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camunda.broker_address")
}

func TestWorkerHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"index-applicant": {Enabled: false, MaxJobsActive: 2, Timeout: 5000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "index-applicant"))
	assert.True(t, IsWorkerEnabled(cfg, "notify-recruiter"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "index-applicant").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "notify-recruiter").MaxJobsActive)
	assert.Equal(t, 5*time.Second, GetDuration(5000))
}
