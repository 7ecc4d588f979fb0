package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/Daskott/dispatch/colors"
	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/server/storage"
	"github.com/Daskott/dispatch/shared"
	"github.com/go-co-op/gocron"
)

const (
	HEALTH_CHECK_JOB    = "storage_health_check"
	PENDING_BACKLOG_JOB = "pending_backlog_report"
	ARCHIVE_JOB         = "archive_requests"

	jobTimeout = 30 * time.Second
)

// Archiver stores a snapshot of all requests, e.g. in a GCS bucket.
type Archiver interface {
	UploadObject(ctx context.Context, bucket, objectName string, content io.Reader) error
}

// ArchiveSnapshot is the document written by the archive job.
type ArchiveSnapshot struct {
	TakenAt  time.Time                 `json:"taken_at"`
	Storage  string                    `json:"storage"`
	Stats    models.RequestStats       `json:"stats"`
	Requests []models.EmergencyRequest `json:"requests"`
}

type jobRunner struct {
	store    storage.Storage
	archiver Archiver
	config   shared.ServerConfig
	clock    func() time.Time
}

func newJobRunner(store storage.Storage, archiver Archiver, config shared.ServerConfig) *jobRunner {
	return &jobRunner{
		store:    store,
		archiver: archiver,
		config:   config,
		clock:    time.Now,
	}
}

// checkStorageHealth pings the store so an unreachable database shows up in
// the logs even when no requests are coming in.
func (j *jobRunner) checkStorageHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := j.store.Ping(ctx); err != nil {
		return fmt.Errorf("%v store is unreachable: %v", j.store.Name(), err)
	}

	return nil
}

// stalePendingRequests returns pending requests older than the configured backlog age.
func (j *jobRunner) stalePendingRequests() ([]models.EmergencyRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	pending, err := j.store.ListRequests(ctx, models.RequestFilter{Status: models.PENDING_REQUEST})
	if err != nil {
		return nil, err
	}

	maxAge := time.Duration(j.config.Dispatch.Backlog.MaxPendingMinutes) * time.Minute
	stale := []models.EmergencyRequest{}
	for _, request := range pending {
		if j.clock().Sub(request.CreatedAt) > maxAge {
			stale = append(stale, request)
		}
	}

	return stale, nil
}

func (j *jobRunner) reportPendingBacklog() error {
	stale, err := j.stalePendingRequests()
	if err != nil {
		return err
	}

	if len(stale) == 0 {
		return nil
	}

	logg.Warnf(colors.Yellow("%v request(s) pending for more than %v minute(s)"),
		len(stale), j.config.Dispatch.Backlog.MaxPendingMinutes)
	for _, request := range stale {
		logg.Warnf("  %v %v request %v waiting since %v",
			request.Priority, request.ServiceType, request.ID, request.CreatedAt.Format(time.RFC3339))
	}

	return nil
}

// archiveRequests uploads a JSON snapshot of every request to the configured bucket.
func (j *jobRunner) archiveRequests() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	requests, err := j.store.ListRequests(ctx, models.RequestFilter{})
	if err != nil {
		return err
	}

	takenAt := j.clock().UTC()
	snapshot := ArchiveSnapshot{
		TakenAt:  takenAt,
		Storage:  j.store.Name(),
		Stats:    models.NewRequestStats(requests),
		Requests: requests,
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	storageConfig := j.config.Google.Storage
	objectName := archiveObjectName(storageConfig.Prefix, takenAt)

	err = j.archiver.UploadObject(ctx, storageConfig.Bucket, objectName, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("archiveRequests: %v", err)
	}

	logg.Infof(colors.Blue("%v request(s) archived to gs://%v/%v"), len(requests), storageConfig.Bucket, objectName)
	return nil
}

// scheduleJobs registers the periodic jobs on scheduler. The archive job is
// only added when archiving is enabled and an archiver is available.
func scheduleJobs(scheduler *gocron.Scheduler, runner *jobRunner) error {
	_, err := scheduler.Every(1).Minute().Tag(HEALTH_CHECK_JOB).Do(runJob, HEALTH_CHECK_JOB, runner.checkStorageHealth)
	if err != nil {
		return err
	}

	_, err = scheduler.Every(5).Minutes().Tag(PENDING_BACKLOG_JOB).Do(runJob, PENDING_BACKLOG_JOB, runner.reportPendingBacklog)
	if err != nil {
		return err
	}

	storageConfig := runner.config.Google.Storage
	if !storageConfig.EnableArchive || runner.archiver == nil {
		return nil
	}

	_, err = scheduler.Cron(storageConfig.ArchiveSchedule).Tag(ARCHIVE_JOB).Do(runJob, ARCHIVE_JOB, runner.archiveRequests)
	return err
}

func runJob(name string, job func() error) {
	if err := job(); err != nil {
		logg.Errorf(colors.Red("[%v] %v"), name, err)
	}
}

func archiveObjectName(prefix string, takenAt time.Time) string {
	return path.Join(prefix, fmt.Sprintf("requests-%v.json", takenAt.Format("20060102T150405Z")))
}
