package models

const (
	CLIENT_ROLE    = "client"
	RESPONDER_ROLE = "responder"

	AVAILABLE_RESPONDER = "available"
	BUSY_RESPONDER      = "busy"
	OFFLINE_RESPONDER   = "offline"
)

var UserRoleNameMap = map[string]bool{
	CLIENT_ROLE:    true,
	RESPONDER_ROLE: true,
}

type User struct {
	BaseModel
	Username    string `json:"username" gorm:"not null;unique"`
	Name        string `json:"name"`
	Phone       string `json:"phone" gorm:"not null;unique"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"-" gorm:"not null"`
	Role        string `json:"role" gorm:"not null"`
	ServiceType string `json:"service_type,omitempty"`
	Status      string `json:"status,omitempty"`
}

// UserFilter narrows ListUsers. Empty fields match everything.
type UserFilter struct {
	Role        string
	ServiceType string
}

func (user *User) IsResponder() bool {
	return user.Role == RESPONDER_ROLE
}

// Matches reports whether the user satisfies every non-empty field of filter.
func (filter UserFilter) Matches(user *User) bool {
	if filter.Role != "" && user.Role != filter.Role {
		return false
	}

	if filter.ServiceType != "" && user.ServiceType != filter.ServiceType {
		return false
	}

	return true
}
