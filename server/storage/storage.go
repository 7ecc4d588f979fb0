package storage

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Daskott/dispatch/server/logger"
	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/shared"
	"github.com/Daskott/dispatch/utils"
)

const (
	POSTGRES_DRIVER = "postgres"
	SQLITE_DRIVER   = "sqlite"
	MEMORY_DRIVER   = "memory"
)

var logg = logger.NewLogger("storage")

// Storage is the data access layer for users and emergency requests.
//
// UpdateRequest is a raw partial merge: it writes whatever it is given,
// whatever the current status, and the last writer wins. Lifecycle changes
// go through UpdateRequestIf, which only applies when the stored status is
// one of fromStatuses.
type Storage interface {
	Name() string
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)

	CreateRequest(ctx context.Context, request *models.EmergencyRequest) error
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.EmergencyRequest, error)
	GetRequest(ctx context.Context, id string) (*models.EmergencyRequest, error)
	UpdateRequest(ctx context.Context, id string, fields models.RequestFields) (*models.EmergencyRequest, error)
	UpdateRequestIf(ctx context.Context, id string, fromStatuses []string, fields models.RequestFields) (*models.EmergencyRequest, error)
}

// Open picks the store once, at startup. It never fails: when no live
// database is configured, or the configured one can't be reached, the
// seeded in-memory store is returned and degraded is true.
func Open(dbConfig shared.DatabaseConfig, sqliteConfig shared.SqliteConfig) (store Storage, degraded bool) {
	var err error

	switch dbConfig.Driver {
	case SQLITE_DRIVER:
		store, err = OpenSqlite(sqliteConfig.PassPhrase, sqliteConfig.Dir)
	default:
		if dbConfig.URL == "" {
			logg.Warn("no database url configured, serving requests from the in-memory demo store")
			return NewMemoryStore(), true
		}
		store, err = OpenPostgres(dbConfig.URL)
	}

	if err != nil {
		logg.Errorf("unable to open %v store, falling back to the in-memory demo store: %v", dbConfig.Driver, err)
		return NewMemoryStore(), true
	}

	logg.Infof("using %v store", store.Name())
	return store, false
}

// prepareNewRequest applies the creation rules shared by every store.
func prepareNewRequest(request *models.EmergencyRequest, now time.Time) {
	request.ID = models.NewID()
	request.Status = models.PENDING_REQUEST
	if request.Priority == "" {
		request.Priority = models.DEFAULT_PRIORITY
	}

	request.ResponderID = ""
	request.ResponderName = ""
	request.ResponderPhone = ""
	request.EstimatedArrival = ""
	request.AcceptedAt = nil
	request.CompletedAt = nil
	request.CancelledAt = nil

	request.CreatedAt = now
	request.UpdatedAt = now
}

// now is truncated to microseconds, the precision postgres keeps, so a
// freshly created record compares equal to the one read back.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func targetStatus(fields models.RequestFields) string {
	if fields.Status == nil {
		return ""
	}
	return *fields.Status
}

func sqliteDBPath(dir string) string {
	return filepath.Join(utils.FirstNonEmpty(dir, "."), "db", SQLITE_DB_NAME)
}
