package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: urbaplan-test
database:
  driver: sqlite
  dsn: "file::memory:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "urbaplan-test", cfg.App.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.MaxWait)
	assert.Equal(t, 2*time.Second, cfg.Engine.LayerTimeout)
	assert.Equal(t, 5, cfg.Engine.MaxMessages)
	assert.Equal(t, "fr", cfg.Engine.DefaultLang)
	assert.Equal(t, "parcel_feasibility", cfg.Lmstfy.Queue)
	require.NoError(t, cfg.Validate())
}

func TestLoad_WorkerSection(t *testing.T) {
	path := writeConfig(t, `
app:
  name: urbaplan
database:
  driver: mysql
  dsn: "user:pass@tcp(db:3306)/urbaplan"
lmstfy:
  host: lmstfy
workers:
  - name: feasibility
    queue_name: parcel_feasibility
    subscriber:
      threads: 1
      timeout: 3s
    processor:
      threads: 2
      buffer_size: 8
      timeout: 20s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Workers, 1)
	assert.Equal(t, 20*time.Second, cfg.Workers[0].Processor.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Workers[0].Subscriber.Timeout)
	assert.NoError(t, cfg.ValidateWorker())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "x"

	cfg.Database.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "database.driver")

	cfg.Database.Driver = "sqlite"
	assert.NoError(t, cfg.Validate())

	cfg.Engine.MaxMessages = 0
	assert.ErrorContains(t, cfg.Validate(), "max_messages")
}

func TestValidateWorker_RequiresWorkers(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "x"
	cfg.Lmstfy.Host = "lmstfy"

	assert.ErrorContains(t, cfg.ValidateWorker(), "at least one worker")
}

func TestValidateServer(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "x"

	assert.ErrorContains(t, cfg.ValidateServer(), "lmstfy.host")

	cfg.Lmstfy.Host = "lmstfy"
	assert.NoError(t, cfg.ValidateServer())

	cfg.Lmstfy.CallbackQueue = ""
	assert.ErrorContains(t, cfg.ValidateServer(), "callback_queue")
}
