package models

const (
	PENDING_REQUEST   = "pending"
	ACTIVE_REQUEST    = "active"
	COMPLETED_REQUEST = "completed"
	DECLINED_REQUEST  = "declined"
	CANCELLED_REQUEST = "cancelled"
)

var RequestStatusNameMap = map[string]bool{
	PENDING_REQUEST:   true,
	ACTIVE_REQUEST:    true,
	COMPLETED_REQUEST: true,
	DECLINED_REQUEST:  true,
	CANCELLED_REQUEST: true,
}

// requestTransitions maps a target status to the statuses it may be reached from.
var requestTransitions = map[string][]string{
	ACTIVE_REQUEST:    {PENDING_REQUEST},
	DECLINED_REQUEST:  {PENDING_REQUEST},
	COMPLETED_REQUEST: {ACTIVE_REQUEST},
	CANCELLED_REQUEST: {PENDING_REQUEST, ACTIVE_REQUEST},
}

type RequestStats struct {
	PendingRequestCount   int64 `json:"pending_request_count"`
	ActiveRequestCount    int64 `json:"active_request_count"`
	CompletedRequestCount int64 `json:"completed_request_count"`
	DeclinedRequestCount  int64 `json:"declined_request_count"`
	CancelledRequestCount int64 `json:"cancelled_request_count"`
}

// SourceStatuses returns the statuses a request must be in to move to 'to'.
// A nil result means no status can reach 'to'.
func SourceStatuses(to string) []string {
	return requestTransitions[to]
}

func CanTransition(from, to string) bool {
	for _, status := range requestTransitions[to] {
		if status == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is accepted from status.
// Declined and cancelled are both the terminal "rejected" outcome.
func IsTerminal(status string) bool {
	switch status {
	case COMPLETED_REQUEST, DECLINED_REQUEST, CANCELLED_REQUEST:
		return true
	}
	return false
}

func NewRequestStats(requests []EmergencyRequest) RequestStats {
	stats := RequestStats{}
	for _, request := range requests {
		switch request.Status {
		case PENDING_REQUEST:
			stats.PendingRequestCount++
		case ACTIVE_REQUEST:
			stats.ActiveRequestCount++
		case COMPLETED_REQUEST:
			stats.CompletedRequestCount++
		case DECLINED_REQUEST:
			stats.DeclinedRequestCount++
		case CANCELLED_REQUEST:
			stats.CancelledRequestCount++
		}
	}
	return stats
}
