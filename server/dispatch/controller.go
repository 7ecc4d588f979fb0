package dispatch

import (
	"context"
	"time"

	"github.com/Daskott/dispatch/server/logger"
	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/server/storage"
	"github.com/pkg/errors"
)

var logg = logger.NewLogger("dispatch")

// Controller owns the emergency request lifecycle:
//
//	pending -> active | declined
//	active  -> completed
//	pending, active -> cancelled
//
// completed, declined and cancelled are terminal. Every transition is a
// single conditional update on the store, so when responders race to accept
// the same request exactly one succeeds and the others get
// models.ErrInvalidTransition.
type Controller struct {
	store storage.Storage
	clock func() time.Time
}

func NewController(store storage.Storage) *Controller {
	return &Controller{
		store: store,
		clock: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Create validates payload and stores it as a new pending request.
func (c *Controller) Create(ctx context.Context, payload NewRequest) (*models.EmergencyRequest, error) {
	if err := validateStruct(payload); err != nil {
		return nil, err
	}

	request := &models.EmergencyRequest{
		ClientID:        payload.ClientID,
		ClientName:      payload.ClientName,
		ClientPhone:     payload.ClientPhone,
		ServiceType:     payload.ServiceType,
		Priority:        payload.Priority,
		LocationLat:     *payload.LocationLat,
		LocationLng:     *payload.LocationLng,
		LocationAddress: payload.LocationAddress,
		Description:     payload.Description,
	}

	err := c.store.CreateRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	logg.Infof("%v request %v created for client %v with '%v' priority",
		request.ServiceType, request.ID, request.ClientID, request.Priority)

	return request, nil
}

func (c *Controller) Get(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	return c.store.GetRequest(ctx, id)
}

// List returns the requests matching filter, newest first.
func (c *Controller) List(ctx context.Context, filter models.RequestFilter) ([]models.EmergencyRequest, error) {
	problems := []string{}
	if filter.Status != "" && !models.RequestStatusNameMap[filter.Status] {
		problems = append(problems, "unknown status: "+filter.Status)
	}

	if filter.ServiceType != "" && !models.ServiceTypeNameMap[filter.ServiceType] {
		problems = append(problems, "unknown service_type: "+filter.ServiceType)
	}

	if len(problems) > 0 {
		return nil, models.NewValidationError(problems...)
	}

	return c.store.ListRequests(ctx, filter)
}

// Accept assigns a responder to a pending request and makes it active.
func (c *Controller) Accept(ctx context.Context, id string, assignment Assignment) (*models.EmergencyRequest, error) {
	if err := validateStruct(assignment); err != nil {
		return nil, err
	}

	if assignment.ResponderID == "" {
		assignment.ResponderID = c.lookupResponderID(ctx, assignment.ResponderPhone)
	}

	acceptedAt := c.clock()
	return c.transition(ctx, id, models.ACTIVE_REQUEST, models.RequestFields{
		ResponderID:      &assignment.ResponderID,
		ResponderName:    &assignment.ResponderName,
		ResponderPhone:   &assignment.ResponderPhone,
		EstimatedArrival: &assignment.EstimatedArrival,
		AcceptedAt:       &acceptedAt,
	})
}

// Decline turns down a pending request. Responder fields are left empty.
func (c *Controller) Decline(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	return c.transition(ctx, id, models.DECLINED_REQUEST, models.RequestFields{})
}

// Complete closes an active request. The responder fields set on accept are kept.
func (c *Controller) Complete(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	completedAt := c.clock()
	return c.transition(ctx, id, models.COMPLETED_REQUEST, models.RequestFields{CompletedAt: &completedAt})
}

// Cancel withdraws a pending or active request on the client's behalf.
func (c *Controller) Cancel(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	cancelledAt := c.clock()
	return c.transition(ctx, id, models.CANCELLED_REQUEST, models.RequestFields{CancelledAt: &cancelledAt})
}

// Amend edits the description or priority of a request that isn't terminal yet.
func (c *Controller) Amend(ctx context.Context, id string, amendment Amendment) (*models.EmergencyRequest, error) {
	if amendment.isEmpty() {
		return nil, models.NewValidationError("valid fields required")
	}

	if err := validateStruct(amendment); err != nil {
		return nil, err
	}

	return c.store.UpdateRequestIf(ctx, id,
		[]string{models.PENDING_REQUEST, models.ACTIVE_REQUEST},
		models.RequestFields{Description: amendment.Description, Priority: amendment.Priority},
	)
}

// Apply routes a partial update to the matching transition, or to Amend when
// no status is given.
func (c *Controller) Apply(ctx context.Context, id string, patch Patch) (*models.EmergencyRequest, error) {
	if patch.Status == "" {
		return c.Amend(ctx, id, patch.Amendment)
	}

	if !patch.Amendment.isEmpty() {
		return nil, models.NewValidationError("description and priority cannot be changed together with status")
	}

	switch patch.Status {
	case models.ACTIVE_REQUEST:
		return c.Accept(ctx, id, patch.Assignment)
	case models.DECLINED_REQUEST:
		return c.Decline(ctx, id)
	case models.COMPLETED_REQUEST:
		return c.Complete(ctx, id)
	case models.CANCELLED_REQUEST:
		return c.Cancel(ctx, id)
	case models.PENDING_REQUEST:
		current, err := c.store.GetRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, models.InvalidTransitionError(current.Status, models.PENDING_REQUEST)
	}

	return nil, models.NewValidationError("unknown status: " + patch.Status)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func (c *Controller) transition(
	ctx context.Context,
	id string,
	to string,
	fields models.RequestFields) (*models.EmergencyRequest, error) {

	fields.Status = &to

	request, err := c.store.UpdateRequestIf(ctx, id, models.SourceStatuses(to), fields)
	if err != nil {
		return nil, err
	}

	logg.Infof("request %v is now '%v'", id, to)
	return request, nil
}

// lookupResponderID links a free-text assignment to a known responder account
// by phone number. Unknown phones leave the id blank.
func (c *Controller) lookupResponderID(ctx context.Context, phone string) string {
	user, err := c.store.FindUserByIdentifier(ctx, phone)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logg.Warnf("unable to look up responder by phone: %v", err)
		}
		return ""
	}

	if !user.IsResponder() {
		return ""
	}

	return user.ID
}
