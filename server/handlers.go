package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Daskott/dispatch/server/auth"
	"github.com/Daskott/dispatch/server/dispatch"
	"github.com/Daskott/dispatch/server/models"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type HealthStatus struct {
	Storage   string `json:"storage"`
	Degraded  bool   `json:"degraded"`
	Reachable bool   `json:"reachable"`
}

var validate = validator.New()

func (app *App) logIn(rw http.ResponseWriter, r *http.Request) {
	credentials := auth.Credentials{}

	err := decodeBody(r, &credentials)
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	if err := validate.Struct(credentials); err != nil {
		writeResponse(rw, ResponsePayload{Errors: validationProblems(err)}, http.StatusBadRequest)
		return
	}

	user, err := auth.Authenticate(r.Context(), app.store, credentials.Identifier, credentials.Password)
	if errors.Is(err, models.ErrNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid credentials"}}, http.StatusUnauthorized)
		return
	}

	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: user}, http.StatusOK)
}

func (app *App) createRequest(rw http.ResponseWriter, r *http.Request) {
	payload := dispatch.NewRequest{}

	err := decodeBody(r, &payload)
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	request, err := app.controller.Create(r.Context(), payload)
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: request}, http.StatusCreated)
}

func (app *App) listRequests(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	requests, err := app.controller.List(r.Context(), models.RequestFilter{
		Status:      query.Get("status"),
		ServiceType: query.Get("service_type"),
		ClientID:    query.Get("client_id"),
		ResponderID: query.Get("responder_id"),
	})
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: requests}, http.StatusOK)
}

func (app *App) findRequest(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	request, err := app.controller.Get(r.Context(), vars["id"])
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: request}, http.StatusOK)
}

func (app *App) updateRequest(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	patch := dispatch.Patch{}

	err := decodeBody(r, &patch)
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	request, err := app.controller.Apply(r.Context(), vars["id"], patch)
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: request}, http.StatusOK)
}

func (app *App) listUsers(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	users, err := app.store.ListUsers(r.Context(), models.UserFilter{
		Role:        query.Get("role"),
		ServiceType: query.Get("service_type"),
	})
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: users}, http.StatusOK)
}

// initDB creates the schema and inserts the demo accounts. Safe to call repeatedly.
func (app *App) initDB(rw http.ResponseWriter, r *http.Request) {
	err := app.store.Migrate(r.Context())
	if err != nil {
		writeErrorResponse(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: app.healthStatus(true)}, http.StatusOK)
}

func (app *App) health(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := app.store.Ping(ctx)
	if err != nil {
		logg.Error(err)
		writeResponse(rw, ResponsePayload{Data: app.healthStatus(false)}, http.StatusServiceUnavailable)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: app.healthStatus(true)}, http.StatusOK)
}

func (app *App) healthStatus(reachable bool) HealthStatus {
	return HealthStatus{
		Storage:   app.store.Name(),
		Degraded:  app.degraded,
		Reachable: reachable,
	}
}

func notFound(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, ResponsePayload{Errors: []string{"route not found"}}, http.StatusNotFound)
}

func methodNotAllowed(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, ResponsePayload{Errors: []string{"method not allowed"}}, http.StatusMethodNotAllowed)
}
