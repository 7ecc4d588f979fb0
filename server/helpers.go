package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/shared"
	"github.com/go-co-op/gocron"
	"github.com/go-playground/validator"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError {
		logg.Info(payLoad.Errors)
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

// writeErrorResponse maps err onto a status code. Server side failures are
// logged in full but answered with a generic message.
func writeErrorResponse(rw http.ResponseWriter, err error) {
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeResponse(rw, ResponsePayload{Errors: validationErr.Problems}, http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		writeResponse(rw, ResponsePayload{Errors: []string{"emergency request not found"}}, http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidTransition):
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
	case errors.Is(err, models.ErrStorageUnavailable):
		logg.Error(err)
		writeResponse(rw, ResponsePayload{Errors: []string{"storage unavailable"}}, http.StatusServiceUnavailable)
	default:
		logg.Error(err)
		writeResponse(rw, ResponsePayload{Errors: []string{"internal server error"}}, http.StatusInternalServerError)
	}
}

func decodeBody(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return models.NewValidationError("request body must be valid json")
	}
	return nil
}

func validationProblems(err error) []string {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	problems := []string{}
	for _, fieldErr := range fieldErrs {
		field := strings.ToLower(fieldErr.Field())
		if fieldErr.Tag() == "required" {
			problems = append(problems, "missing required field: "+field)
			continue
		}
		problems = append(problems, "invalid value for field: "+field)
	}
	return problems
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

// ParseConfig decodes and validates the server configuration held by config.
func ParseConfig(config *viper.Viper) (*shared.ServerConfig, error) {
	serverConfig := shared.ServerConfig{}

	err := config.Unmarshal(&serverConfig)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode server config")
	}

	err = validate.Struct(serverConfig)
	if err != nil {
		return nil, errors.Wrap(err, "invalid server config")
	}

	return &serverConfig, nil
}

func serve(server *http.Server) {
	logg.Infof("Dispatch server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func cleanup(scheduler *gocron.Scheduler, app *App, server *http.Server) {
	// Stop periodic jobs before the store goes away
	scheduler.Stop()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Dispatch server shutdown failed:%+s", err)
	}

	if err := app.store.Close(); err != nil {
		logg.Errorf("unable to close %v store: %v", app.store.Name(), err)
	}

	logg.Infof("Dispatch server stopped properly")
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
