package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/server/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 {
	return &f
}

func strPtr(s string) *string {
	return &s
}

func newTestPayload(serviceType, priority string) NewRequest {
	return NewRequest{
		ClientID:        "550e8400-e29b-41d4-a716-446655440001",
		ClientName:      "Peter Njiru",
		ClientPhone:     "+254798578853",
		ServiceType:     serviceType,
		Priority:        priority,
		LocationLat:     floatPtr(-1.2921),
		LocationLng:     floatPtr(36.8219),
		LocationAddress: "Kenyatta Avenue, Nairobi",
		Description:     "X",
	}
}

var testAssignment = Assignment{
	ResponderID:      "550e8400-e29b-41d4-a716-446655440006",
	ResponderName:    "Ali Hassan",
	ResponderPhone:   "+254700345678",
	EstimatedArrival: "8 minutes",
}

func newTestController(t *testing.T) (*Controller, context.Context) {
	return NewController(storage.NewMemoryStore()), context.Background()
}

func createPending(t *testing.T, c *Controller, ctx context.Context) *models.EmergencyRequest {
	request, err := c.Create(ctx, newTestPayload(models.MEDICAL_SERVICE, ""))
	require.Nil(t, err)
	return request
}

func TestCreate(t *testing.T) {
	c, ctx := newTestController(t)

	request, err := c.Create(ctx, newTestPayload(models.FIRE_SERVICE, ""))
	require.Nil(t, err)

	assert.Equal(t, models.PENDING_REQUEST, request.Status)
	assert.Equal(t, models.MEDIUM_PRIORITY, request.Priority)
	assert.Empty(t, request.ResponderID)
	assert.Empty(t, request.ResponderName)
	assert.Empty(t, request.ResponderPhone)
	assert.Empty(t, request.EstimatedArrival)
	assert.Nil(t, request.AcceptedAt)

	stored, err := c.Get(ctx, request.ID)
	require.Nil(t, err)
	assert.Equal(t, *request, *stored)
}

func TestCreateValidation(t *testing.T) {
	c, ctx := newTestController(t)

	testCases := []struct {
		description     string
		mutate          func(*NewRequest)
		expectedProblem string
	}{
		{"missing client id", func(p *NewRequest) { p.ClientID = "" }, "missing required field: client_id"},
		{"missing description", func(p *NewRequest) { p.Description = "" }, "missing required field: description"},
		{"missing latitude", func(p *NewRequest) { p.LocationLat = nil }, "missing required field: location_lat"},
		{"unknown service type", func(p *NewRequest) { p.ServiceType = "plumbing" }, "service_type must be one of [fire police medical]"},
		{"unknown priority", func(p *NewRequest) { p.Priority = "urgent" }, "priority must be one of [low medium high critical]"},
		{"latitude out of range", func(p *NewRequest) { p.LocationLat = floatPtr(91) }, "location_lat is out of range"},
	}

	for _, tcase := range testCases {
		t.Run(tcase.description, func(t *testing.T) {
			payload := newTestPayload(models.POLICE_SERVICE, "")
			tcase.mutate(&payload)

			_, err := c.Create(ctx, payload)

			var validationErr *models.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Contains(t, validationErr.Problems, tcase.expectedProblem)
		})
	}
}

func TestCreatedRequestIsListedFirst(t *testing.T) {
	c, ctx := newTestController(t)

	// The demo data already holds an older pending medical request
	request, err := c.Create(ctx, NewRequest{
		ClientID:    "c1",
		ClientName:  "client one",
		ClientPhone: "+254700000001",
		ServiceType: models.MEDICAL_SERVICE,
		Priority:    models.CRITICAL_PRIORITY,
		LocationLat: floatPtr(0),
		LocationLng: floatPtr(0),
		Description: "collapsed on the street",
	})
	require.Nil(t, err)

	requests, err := c.List(ctx, models.RequestFilter{ServiceType: models.MEDICAL_SERVICE, Status: models.PENDING_REQUEST})
	require.Nil(t, err)
	require.True(t, len(requests) >= 2)
	assert.Equal(t, request.ID, requests[0].ID)
}

func TestListRejectsUnknownFilters(t *testing.T) {
	c, ctx := newTestController(t)

	_, err := c.List(ctx, models.RequestFilter{Status: "accepted"})
	assert.True(t, models.IsValidationError(err))

	_, err = c.List(ctx, models.RequestFilter{ServiceType: "plumbing"})
	assert.True(t, models.IsValidationError(err))
}

func TestListPendingExcludesOtherStatuses(t *testing.T) {
	c, ctx := newTestController(t)

	accepted := createPending(t, c, ctx)
	_, err := c.Accept(ctx, accepted.ID, testAssignment)
	require.Nil(t, err)

	cancelled := createPending(t, c, ctx)
	_, err = c.Cancel(ctx, cancelled.ID)
	require.Nil(t, err)

	completed := createPending(t, c, ctx)
	_, err = c.Accept(ctx, completed.ID, testAssignment)
	require.Nil(t, err)
	_, err = c.Complete(ctx, completed.ID)
	require.Nil(t, err)

	requests, err := c.List(ctx, models.RequestFilter{Status: models.PENDING_REQUEST})
	require.Nil(t, err)
	for _, request := range requests {
		assert.Equal(t, models.PENDING_REQUEST, request.Status)
	}
}

func TestAccept(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	request, err := c.Accept(ctx, pending.ID, testAssignment)
	require.Nil(t, err)

	assert.Equal(t, models.ACTIVE_REQUEST, request.Status)
	assert.Equal(t, testAssignment.ResponderID, request.ResponderID)
	assert.Equal(t, testAssignment.ResponderName, request.ResponderName)
	assert.Equal(t, testAssignment.ResponderPhone, request.ResponderPhone)
	assert.Equal(t, "8 minutes", request.EstimatedArrival)
	require.NotNil(t, request.AcceptedAt)
	assert.False(t, request.AcceptedAt.Before(request.CreatedAt))
	assert.Equal(t, "X", request.Description)
}

func TestAcceptLinksResponderByPhone(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	assignment := testAssignment
	assignment.ResponderID = ""

	request, err := c.Accept(ctx, pending.ID, assignment)
	require.Nil(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440006", request.ResponderID)
}

func TestAcceptRequiresAssignment(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	assignment := testAssignment
	assignment.EstimatedArrival = ""

	_, err := c.Accept(ctx, pending.ID, assignment)
	assert.True(t, models.IsValidationError(err))

	stored, err := c.Get(ctx, pending.ID)
	require.Nil(t, err)
	assert.Equal(t, models.PENDING_REQUEST, stored.Status)
}

func TestSecondAcceptIsRejected(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	_, err := c.Accept(ctx, pending.ID, testAssignment)
	require.Nil(t, err)

	_, err = c.Accept(ctx, pending.ID, Assignment{
		ResponderName:    "Mark Maina",
		ResponderPhone:   "+254700123456",
		EstimatedArrival: "5 minutes",
	})
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	stored, err := c.Get(ctx, pending.ID)
	require.Nil(t, err)
	assert.Equal(t, "Ali Hassan", stored.ResponderName)
}

func TestConcurrentAcceptsHaveOneWinner(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	const responders = 10
	var wg sync.WaitGroup
	results := make(chan error, responders)

	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Accept(ctx, pending.ID, Assignment{
				ResponderName:    fmt.Sprintf("responder %v", i),
				ResponderPhone:   fmt.Sprintf("+2547000000%02d", i),
				EstimatedArrival: "10 minutes",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		assert.True(t, errors.Is(err, models.ErrInvalidTransition))
	}
	assert.Equal(t, 1, winners)
}

func TestComplete(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	_, err := c.Complete(ctx, pending.ID)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition), "pending request can't be completed")

	_, err = c.Accept(ctx, pending.ID, testAssignment)
	require.Nil(t, err)

	request, err := c.Complete(ctx, pending.ID)
	require.Nil(t, err)

	assert.Equal(t, models.COMPLETED_REQUEST, request.Status)
	assert.NotNil(t, request.CompletedAt)
	assert.Equal(t, testAssignment.ResponderID, request.ResponderID)
	assert.Equal(t, testAssignment.ResponderName, request.ResponderName)
	assert.Equal(t, testAssignment.ResponderPhone, request.ResponderPhone)
	assert.Equal(t, testAssignment.EstimatedArrival, request.EstimatedArrival)
}

func TestDeclineLeavesResponderFieldsEmpty(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	request, err := c.Decline(ctx, pending.ID)
	require.Nil(t, err)

	assert.Equal(t, models.DECLINED_REQUEST, request.Status)
	assert.Empty(t, request.ResponderName)
	assert.Nil(t, request.AcceptedAt)
}

func TestCancelActiveRequest(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	_, err := c.Accept(ctx, pending.ID, testAssignment)
	require.Nil(t, err)

	request, err := c.Cancel(ctx, pending.ID)
	require.Nil(t, err)
	assert.Equal(t, models.CANCELLED_REQUEST, request.Status)
	assert.NotNil(t, request.CancelledAt)
}

func TestTerminalRequestsAcceptNoTransition(t *testing.T) {
	c, ctx := newTestController(t)

	toTerminal := map[string]func(id string) error{
		models.DECLINED_REQUEST: func(id string) error {
			_, err := c.Decline(ctx, id)
			return err
		},
		models.CANCELLED_REQUEST: func(id string) error {
			_, err := c.Cancel(ctx, id)
			return err
		},
		models.COMPLETED_REQUEST: func(id string) error {
			if _, err := c.Accept(ctx, id, testAssignment); err != nil {
				return err
			}
			_, err := c.Complete(ctx, id)
			return err
		},
	}

	actions := map[string]func(id string) error{
		"accept": func(id string) error {
			_, err := c.Accept(ctx, id, testAssignment)
			return err
		},
		"decline": func(id string) error {
			_, err := c.Decline(ctx, id)
			return err
		},
		"complete": func(id string) error {
			_, err := c.Complete(ctx, id)
			return err
		},
		"cancel": func(id string) error {
			_, err := c.Cancel(ctx, id)
			return err
		},
		"amend": func(id string) error {
			_, err := c.Amend(ctx, id, Amendment{Description: strPtr("more details")})
			return err
		},
	}

	for terminal, reach := range toTerminal {
		for name, action := range actions {
			t.Run(fmt.Sprintf("%v request rejects %v", terminal, name), func(t *testing.T) {
				request := createPending(t, c, ctx)
				require.Nil(t, reach(request.ID))

				err := action(request.ID)
				assert.True(t, errors.Is(err, models.ErrInvalidTransition))

				stored, err := c.Get(ctx, request.ID)
				require.Nil(t, err)
				assert.Equal(t, terminal, stored.Status)
			})
		}
	}
}

func TestTransitionsOnUnknownRequest(t *testing.T) {
	c, ctx := newTestController(t)

	_, err := c.Accept(ctx, "missing", testAssignment)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = c.Complete(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = c.Get(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = c.Apply(ctx, "missing", Patch{Status: models.PENDING_REQUEST})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestAmend(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	request, err := c.Amend(ctx, pending.ID, Amendment{Priority: strPtr(models.HIGH_PRIORITY)})
	require.Nil(t, err)
	assert.Equal(t, models.HIGH_PRIORITY, request.Priority)
	assert.Equal(t, "X", request.Description)
	assert.Equal(t, models.PENDING_REQUEST, request.Status)

	_, err = c.Amend(ctx, pending.ID, Amendment{})
	assert.True(t, models.IsValidationError(err))

	_, err = c.Amend(ctx, pending.ID, Amendment{Description: strPtr("")})
	assert.True(t, models.IsValidationError(err))
}

func TestApply(t *testing.T) {
	c, ctx := newTestController(t)
	pending := createPending(t, c, ctx)

	request, err := c.Apply(ctx, pending.ID, Patch{Status: models.ACTIVE_REQUEST, Assignment: testAssignment})
	require.Nil(t, err)
	assert.Equal(t, models.ACTIVE_REQUEST, request.Status)

	_, err = c.Apply(ctx, pending.ID, Patch{Status: models.PENDING_REQUEST})
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	_, err = c.Apply(ctx, pending.ID, Patch{Status: "accepted"})
	assert.True(t, models.IsValidationError(err))

	_, err = c.Apply(ctx, pending.ID, Patch{
		Status:    models.COMPLETED_REQUEST,
		Amendment: Amendment{Description: strPtr("done")},
	})
	assert.True(t, models.IsValidationError(err))

	request, err = c.Apply(ctx, pending.ID, Patch{Status: models.COMPLETED_REQUEST})
	require.Nil(t, err)
	assert.Equal(t, models.COMPLETED_REQUEST, request.Status)
}
