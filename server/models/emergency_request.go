package models

import "time"

const (
	FIRE_SERVICE    = "fire"
	POLICE_SERVICE  = "police"
	MEDICAL_SERVICE = "medical"

	LOW_PRIORITY      = "low"
	MEDIUM_PRIORITY   = "medium"
	HIGH_PRIORITY     = "high"
	CRITICAL_PRIORITY = "critical"

	DEFAULT_PRIORITY = MEDIUM_PRIORITY
)

var ServiceTypeNameMap = map[string]bool{
	FIRE_SERVICE:    true,
	POLICE_SERVICE:  true,
	MEDICAL_SERVICE: true,
}

var PriorityNameMap = map[string]bool{
	LOW_PRIORITY:      true,
	MEDIUM_PRIORITY:   true,
	HIGH_PRIORITY:     true,
	CRITICAL_PRIORITY: true,
}

// EmergencyRequest is a client's call for help. Client contact details are
// copied in at creation and never re-synced with the users table.
type EmergencyRequest struct {
	BaseModel
	ClientID         string     `json:"client_id" gorm:"not null;index"`
	ClientName       string     `json:"client_name" gorm:"not null"`
	ClientPhone      string     `json:"client_phone" gorm:"not null"`
	ServiceType      string     `json:"service_type" gorm:"not null;index"`
	Priority         string     `json:"priority" gorm:"not null;default:medium"`
	LocationLat      float64    `json:"location_lat"`
	LocationLng      float64    `json:"location_lng"`
	LocationAddress  string     `json:"location_address"`
	Description      string     `json:"description"`
	Status           string     `json:"status" gorm:"not null;default:pending;index"`
	ResponderID      string     `json:"responder_id,omitempty" gorm:"index"`
	ResponderName    string     `json:"responder_name,omitempty"`
	ResponderPhone   string     `json:"responder_phone,omitempty"`
	EstimatedArrival string     `json:"estimated_arrival,omitempty"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

// RequestFilter narrows ListRequests. Empty fields match everything.
type RequestFilter struct {
	Status      string
	ServiceType string
	ClientID    string
	ResponderID string
}

// Matches reports whether request satisfies every non-empty field of filter.
func (filter RequestFilter) Matches(request *EmergencyRequest) bool {
	switch {
	case filter.Status != "" && request.Status != filter.Status:
		return false
	case filter.ServiceType != "" && request.ServiceType != filter.ServiceType:
		return false
	case filter.ClientID != "" && request.ClientID != filter.ClientID:
		return false
	case filter.ResponderID != "" && request.ResponderID != filter.ResponderID:
		return false
	}

	return true
}

// RequestFields is a partial update of an EmergencyRequest. Nil fields are
// left untouched.
type RequestFields struct {
	Status           *string
	Priority         *string
	Description      *string
	ResponderID      *string
	ResponderName    *string
	ResponderPhone   *string
	EstimatedArrival *string
	AcceptedAt       *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

func (fields RequestFields) IsEmpty() bool {
	return len(fields.Columns()) == 0
}

// Columns returns the set fields keyed by column name, ready for a gorm
// Updates call.
func (fields RequestFields) Columns() map[string]interface{} {
	columns := make(map[string]interface{})

	strs := map[string]*string{
		"status":            fields.Status,
		"priority":          fields.Priority,
		"description":       fields.Description,
		"responder_id":      fields.ResponderID,
		"responder_name":    fields.ResponderName,
		"responder_phone":   fields.ResponderPhone,
		"estimated_arrival": fields.EstimatedArrival,
	}
	for column, value := range strs {
		if value != nil {
			columns[column] = *value
		}
	}

	times := map[string]*time.Time{
		"accepted_at":  fields.AcceptedAt,
		"completed_at": fields.CompletedAt,
		"cancelled_at": fields.CancelledAt,
	}
	for column, value := range times {
		if value != nil {
			columns[column] = *value
		}
	}

	return columns
}

// ApplyTo merges the set fields into request.
func (fields RequestFields) ApplyTo(request *EmergencyRequest) {
	if fields.Status != nil {
		request.Status = *fields.Status
	}
	if fields.Priority != nil {
		request.Priority = *fields.Priority
	}
	if fields.Description != nil {
		request.Description = *fields.Description
	}
	if fields.ResponderID != nil {
		request.ResponderID = *fields.ResponderID
	}
	if fields.ResponderName != nil {
		request.ResponderName = *fields.ResponderName
	}
	if fields.ResponderPhone != nil {
		request.ResponderPhone = *fields.ResponderPhone
	}
	if fields.EstimatedArrival != nil {
		request.EstimatedArrival = *fields.EstimatedArrival
	}
	if fields.AcceptedAt != nil {
		t := *fields.AcceptedAt
		request.AcceptedAt = &t
	}
	if fields.CompletedAt != nil {
		t := *fields.CompletedAt
		request.CompletedAt = &t
	}
	if fields.CancelledAt != nil {
		t := *fields.CancelledAt
		request.CancelledAt = &t
	}
}
