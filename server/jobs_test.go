package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Daskott/dispatch/server/cron"
	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/server/storage"
	"github.com/Daskott/dispatch/shared"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferArchiver struct {
	bucket     string
	objectName string
	content    bytes.Buffer
}

func (b *bufferArchiver) UploadObject(ctx context.Context, bucket, objectName string, content io.Reader) error {
	b.bucket = bucket
	b.objectName = objectName
	_, err := io.Copy(&b.content, content)
	return err
}

func testServerConfig() shared.ServerConfig {
	config := shared.ServerConfig{}
	config.Dispatch.Cron.TimeZone = "UTC"
	config.Dispatch.Listener.Port = 3000
	config.Dispatch.Backlog.MaxPendingMinutes = 15
	config.Google.Storage = shared.StorageConfig{
		Bucket:          "dispatch",
		Prefix:          "dispatch-test",
		ArchiveSchedule: "*/30 * * * *",
		EnableArchive:   true,
	}
	return config
}

func TestStalePendingRequests(t *testing.T) {
	runner := newJobRunner(storage.NewMemoryStore(), nil, testServerConfig())

	// Demo requests were created at 08:00 and 08:05
	runner.clock = func() time.Time { return time.Date(2024, 1, 15, 8, 18, 0, 0, time.UTC) }
	stale, err := runner.stalePendingRequests()
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, models.MEDICAL_SERVICE, stale[0].ServiceType)

	runner.clock = func() time.Time { return time.Date(2024, 1, 15, 8, 10, 0, 0, time.UTC) }
	stale, err = runner.stalePendingRequests()
	require.NoError(t, err)
	assert.Empty(t, stale)

	assert.NoError(t, runner.reportPendingBacklog())
}

func TestArchiveRequests(t *testing.T) {
	archiver := &bufferArchiver{}
	runner := newJobRunner(storage.NewMemoryStore(), archiver, testServerConfig())
	runner.clock = func() time.Time { return time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, runner.archiveRequests())
	assert.Equal(t, "dispatch", archiver.bucket)
	assert.Equal(t, "dispatch-test/requests-20240115T093000Z.json", archiver.objectName)

	snapshot := ArchiveSnapshot{}
	require.NoError(t, json.Unmarshal(archiver.content.Bytes(), &snapshot))
	assert.Equal(t, storage.MEMORY_DRIVER, snapshot.Storage)
	assert.Len(t, snapshot.Requests, len(models.DemoRequests()))
	assert.EqualValues(t, len(models.DemoRequests()), snapshot.Stats.PendingRequestCount)
}

func TestCheckStorageHealth(t *testing.T) {
	runner := newJobRunner(storage.NewMemoryStore(), nil, testServerConfig())
	assert.NoError(t, runner.checkStorageHealth())

	runner = newJobRunner(failingStore{storage.NewMemoryStore()}, nil, testServerConfig())
	assert.Error(t, runner.checkStorageHealth())
}

func TestScheduleJobs(t *testing.T) {
	config := testServerConfig()

	scheduler := cron.NewCronScheduler("UTC")
	require.NoError(t, scheduleJobs(scheduler, newJobRunner(storage.NewMemoryStore(), &bufferArchiver{}, config)))
	assert.Len(t, scheduler.Jobs(), 3)

	// No archiver, no archive job
	scheduler = cron.NewCronScheduler("UTC")
	require.NoError(t, scheduleJobs(scheduler, newJobRunner(storage.NewMemoryStore(), nil, config)))
	assert.Len(t, scheduler.Jobs(), 2)
}

func TestParseConfig(t *testing.T) {
	config := newTestViper(t, `
dispatch:
  cron:
    timeZone: "UTC"
  listener:
    port: 8080
database:
  driver: postgres
  url: postgres://localhost/dispatch
`)

	serverConfig, err := ParseConfig(config)
	require.NoError(t, err)
	assert.Equal(t, 8080, serverConfig.Dispatch.Listener.Port)
	assert.Equal(t, "postgres://localhost/dispatch", serverConfig.Database.URL)

	_, err = ParseConfig(newTestViper(t, `
dispatch:
  cron:
    timeZone: "UTC"
  listener:
    port: 0
`))
	assert.Error(t, err)

	_, err = ParseConfig(newTestViper(t, `
dispatch:
  cron:
    timeZone: "UTC"
  listener:
    port: 3000
database:
  driver: mysql
`))
	assert.Error(t, err)
}

func newTestViper(t *testing.T, content string) *viper.Viper {
	t.Helper()

	config := viper.New()
	config.SetConfigType("yaml")
	require.NoError(t, config.ReadConfig(strings.NewReader(content)))
	return config
}
