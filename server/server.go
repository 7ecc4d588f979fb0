package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Daskott/dispatch/server/cron"
	"github.com/Daskott/dispatch/server/dispatch"
	"github.com/Daskott/dispatch/server/gstorage"
	"github.com/Daskott/dispatch/server/logger"
	"github.com/Daskott/dispatch/server/storage"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
)

var logg = logger.NewLogger("server")

// App holds everything a request handler needs. The store is chosen once at
// startup and never swapped while serving.
type App struct {
	store      storage.Storage
	controller *dispatch.Controller
	degraded   bool
	handler    http.Handler
}

// NewApp builds the routes for store. degraded marks the in-memory fallback.
func NewApp(store storage.Storage, degraded bool) *App {
	app := &App{
		store:      store,
		controller: dispatch.NewController(store),
		degraded:   degraded,
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	router.HandleFunc("/auth/login", app.logIn).Methods("POST")
	router.HandleFunc("/emergency", app.createRequest).Methods("POST")
	router.HandleFunc("/emergency", app.listRequests).Methods("GET")
	router.HandleFunc("/emergency/{id}", app.findRequest).Methods("GET")
	router.HandleFunc("/emergency/{id}", app.updateRequest).Methods("PATCH")
	router.HandleFunc("/users", app.listUsers).Methods("GET")
	router.HandleFunc("/init-db", app.initDB).Methods("POST")
	router.HandleFunc("/health", app.health).Methods("GET")

	app.handler = recoveryMiddleware(loggingMiddleware(app.initialContextMiddleware(router)))
	return app
}

func (app *App) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	app.handler.ServeHTTP(rw, r)
}

func Start(config *viper.Viper, devMode bool) {
	serverConfig, err := ParseConfig(config)
	fatalOnError(err)

	if devMode {
		logg.Info("running in development mode")
	}

	store, degraded := storage.Open(serverConfig.Database, serverConfig.Sqlite)

	// A failed migration is retried through POST /init-db
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Migrate(ctx); err != nil {
		logg.Errorf("unable to migrate %v store: %v", store.Name(), err)
	}
	cancel()

	app := NewApp(store, degraded)

	var archiver Archiver
	if serverConfig.Google.Storage.EnableArchive {
		gStorage, err := gstorage.NewGStorage(context.Background(), serverConfig.Google.ApplicationCredentials)
		if err != nil {
			logg.Errorf("request archive disabled: %v", err)
		} else {
			archiver = gStorage
			defer gStorage.Close()
		}
	}

	scheduler := cron.NewCronScheduler(serverConfig.Dispatch.Cron.TimeZone)
	fatalOnError(scheduleJobs(scheduler, newJobRunner(store, archiver, *serverConfig)))
	scheduler.StartAsync()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%v", serverConfig.Dispatch.Listener.Port),
		Handler:      app,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go serve(server)

	waitForShutdownSignal()
	cleanup(scheduler, app, server)
}
