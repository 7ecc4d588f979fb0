package dispatch

// NewRequest is the creation payload a client submits.
type NewRequest struct {
	ClientID        string   `json:"client_id" validate:"required"`
	ClientName      string   `json:"client_name" validate:"required"`
	ClientPhone     string   `json:"client_phone" validate:"required"`
	ServiceType     string   `json:"service_type" validate:"required,oneof=fire police medical"`
	Priority        string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	LocationLat     *float64 `json:"location_lat" validate:"required,min=-90,max=90"`
	LocationLng     *float64 `json:"location_lng" validate:"required,min=-180,max=180"`
	LocationAddress string   `json:"location_address"`
	Description     string   `json:"description" validate:"required"`
}

// Assignment names the responder taking a request. EstimatedArrival is free
// text, e.g. "8 minutes".
type Assignment struct {
	ResponderID      string `json:"responder_id"`
	ResponderName    string `json:"responder_name" validate:"required"`
	ResponderPhone   string `json:"responder_phone" validate:"required"`
	EstimatedArrival string `json:"estimated_arrival" validate:"required"`
}

// Amendment edits the content of a request that is still open.
type Amendment struct {
	Description *string `json:"description" validate:"omitempty,min=1"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}

func (amendment Amendment) isEmpty() bool {
	return amendment.Description == nil && amendment.Priority == nil
}

// Patch is a partial update as received at the HTTP edge: either a status
// change (with an Assignment when accepting) or an Amendment, never both.
type Patch struct {
	Status string `json:"status"`
	Assignment
	Amendment
}
