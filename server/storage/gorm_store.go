package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/utils"
	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const SQLITE_DB_NAME = "dispatch.db"

// GormStore keeps users and requests in a SQL database through gorm.
type GormStore struct {
	db   *gorm.DB
	name string
}

// OpenPostgres connects to the postgres database named by dsn.
func OpenPostgres(dsn string) (*GormStore, error) {
	return openGormStore(postgres.Open(dsn), POSTGRES_DRIVER)
}

// OpenSqlite opens (creating if needed) an encrypted sqlite database under rootDir/db.
func OpenSqlite(passPhrase string, rootDir string) (*GormStore, error) {
	if passPhrase == "" {
		return nil, fmt.Errorf("sqlite passPhrase is required")
	}

	dbPath := sqliteDBPath(rootDir)
	err := utils.CreateDirIfNotExist(filepath.Dir(dbPath))
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"file:%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL",
		dbPath,
		passPhrase,
	)

	return openGormStore(sqliteEncrypt.Open(dsn), SQLITE_DRIVER)
}

func openGormStore(dialector gorm.Dialector, name string) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	return &GormStore{db: db, name: name}, nil
}

func (store *GormStore) Name() string {
	return store.name
}

// Migrate auto-migrates the schema and inserts any missing demo account.
// It is safe to call repeatedly.
func (store *GormStore) Migrate(ctx context.Context) error {
	db := store.db.WithContext(ctx)

	err := db.AutoMigrate(&models.User{}, &models.EmergencyRequest{})
	if err != nil {
		return storageError("Migrate", err)
	}

	for _, user := range models.DemoUsers() {
		user := user
		res := db.Where(models.User{Username: user.Username}).FirstOrCreate(&user)
		if res.Error != nil {
			return storageError("Migrate", res.Error)
		}

		if res.RowsAffected > 0 {
			logg.Infof("inserted demo user '%v'", user.Username)
		}
	}

	return nil
}

func (store *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return storageError("Ping", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return storageError("Ping", err)
	}

	return nil
}

func (store *GormStore) Close() error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (store *GormStore) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users := []models.User{}

	err := store.db.WithContext(ctx).
		Where(&models.User{Role: filter.Role, ServiceType: filter.ServiceType}).
		Order("username").Find(&users).Error
	if err != nil {
		return nil, storageError("ListUsers", err)
	}

	return users, nil
}

// FindUserByIdentifier matches identifier against either username or phone.
func (store *GormStore) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user := models.User{}

	err := store.db.WithContext(ctx).
		Where("username = ? OR phone = ?", identifier, identifier).First(&user).Error
	if err != nil {
		return nil, storageError("FindUserByIdentifier", err)
	}

	return &user, nil
}

func (store *GormStore) CreateRequest(ctx context.Context, request *models.EmergencyRequest) error {
	prepareNewRequest(request, now())

	err := store.db.WithContext(ctx).Create(request).Error
	if err != nil {
		return storageError("CreateRequest", err)
	}

	return nil
}

func (store *GormStore) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.EmergencyRequest, error) {
	requests := []models.EmergencyRequest{}

	err := store.db.WithContext(ctx).
		Where(&models.EmergencyRequest{
			Status:      filter.Status,
			ServiceType: filter.ServiceType,
			ClientID:    filter.ClientID,
			ResponderID: filter.ResponderID,
		}).
		Order("created_at desc").Find(&requests).Error
	if err != nil {
		return nil, storageError("ListRequests", err)
	}

	return requests, nil
}

func (store *GormStore) GetRequest(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	request := models.EmergencyRequest{}

	err := store.db.WithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		return nil, storageError("GetRequest", err)
	}

	return &request, nil
}

func (store *GormStore) UpdateRequest(ctx context.Context, id string, fields models.RequestFields) (*models.EmergencyRequest, error) {
	res := store.db.WithContext(ctx).Model(&models.EmergencyRequest{}).
		Where("id = ?", id).Updates(updateColumns(fields))
	if res.Error != nil {
		return nil, storageError("UpdateRequest", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, errors.Wrapf(models.ErrNotFound, "UpdateRequest: request %v", id)
	}

	return store.GetRequest(ctx, id)
}

// UpdateRequestIf applies fields in a single conditional update guarded by
// the request's current status, so of several racing callers only one wins.
func (store *GormStore) UpdateRequestIf(
	ctx context.Context,
	id string,
	fromStatuses []string,
	fields models.RequestFields) (*models.EmergencyRequest, error) {

	if len(fromStatuses) == 0 {
		return nil, errors.Wrap(models.ErrInvalidTransition, "UpdateRequestIf: no source status allowed")
	}

	res := store.db.WithContext(ctx).Model(&models.EmergencyRequest{}).
		Where("id = ? AND status IN ?", id, fromStatuses).Updates(updateColumns(fields))
	if res.Error != nil {
		return nil, storageError("UpdateRequestIf", res.Error)
	}

	// Nothing matched, find out whether the request is missing or just in the wrong state
	if res.RowsAffected == 0 {
		current, err := store.GetRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, models.InvalidTransitionError(current.Status, targetStatus(fields))
	}

	return store.GetRequest(ctx, id)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func updateColumns(fields models.RequestFields) map[string]interface{} {
	columns := fields.Columns()
	columns["updated_at"] = now()
	return columns
}

// storageError maps gorm's not-found onto models.ErrNotFound and every other
// failure onto models.ErrStorageUnavailable.
func storageError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(models.ErrNotFound, op)
	}
	return errors.Wrapf(models.ErrStorageUnavailable, "%v: %v", op, err)
}
