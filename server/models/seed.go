package models

import "time"

// seedTime anchors the demo dataset so every process start sees the same records.
var seedTime = time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)

// DemoUsers returns the fixed demo accounts. Every password equals its username.
func DemoUsers() []User {
	return []User{
		demoUser("550e8400-e29b-41d4-a716-446655440001", "PeterNjiru", "Peter Njiru", "peter.njiru@example.com", "+254798578853", CLIENT_ROLE, ""),
		demoUser("550e8400-e29b-41d4-a716-446655440002", "MichealWekesa", "Micheal Wekesa", "micheal.wekesa@example.com", "+254798578854", CLIENT_ROLE, ""),
		demoUser("550e8400-e29b-41d4-a716-446655440003", "TeejanAmusala", "Teejan Amusala", "teejan.amusala@example.com", "+254798578855", CLIENT_ROLE, ""),
		demoUser("550e8400-e29b-41d4-a716-446655440004", "MarkMaina", "Mark Maina", "mark.maina@fire.gov.ke", "+254700123456", RESPONDER_ROLE, FIRE_SERVICE),
		demoUser("550e8400-e29b-41d4-a716-446655440005", "SashaMunene", "Sasha Munene", "sasha.munene@police.gov.ke", "+254700789012", RESPONDER_ROLE, POLICE_SERVICE),
		demoUser("550e8400-e29b-41d4-a716-446655440006", "AliHassan", "Ali Hassan", "ali.hassan@health.gov.ke", "+254700345678", RESPONDER_ROLE, MEDICAL_SERVICE),
	}
}

// DemoRequests returns the pending requests the in-memory store starts with.
func DemoRequests() []EmergencyRequest {
	return []EmergencyRequest{
		{
			BaseModel:       BaseModel{ID: "7d3f1a52-9c1e-4b8a-9f43-0c2b5e6a1001", CreatedAt: seedTime, UpdatedAt: seedTime},
			ClientID:        "550e8400-e29b-41d4-a716-446655440001",
			ClientName:      "Peter Njiru",
			ClientPhone:     "+254798578853",
			ServiceType:     MEDICAL_SERVICE,
			Priority:        HIGH_PRIORITY,
			LocationLat:     40.7128,
			LocationLng:     -74.0060,
			LocationAddress: "40.7128,-74.0060",
			Description:     "Person experiencing chest pain",
			Status:          PENDING_REQUEST,
		},
		{
			BaseModel:       BaseModel{ID: "7d3f1a52-9c1e-4b8a-9f43-0c2b5e6a1002", CreatedAt: seedTime.Add(5 * time.Minute), UpdatedAt: seedTime.Add(5 * time.Minute)},
			ClientID:        "550e8400-e29b-41d4-a716-446655440002",
			ClientName:      "Micheal Wekesa",
			ClientPhone:     "+254798578854",
			ServiceType:     POLICE_SERVICE,
			Priority:        MEDIUM_PRIORITY,
			LocationLat:     40.7135,
			LocationLng:     -74.0046,
			LocationAddress: "40.7135,-74.0046",
			Description:     "Suspicious activity reported",
			Status:          PENDING_REQUEST,
		},
	}
}

func demoUser(id, username, name, email, phone, role, serviceType string) User {
	user := User{
		BaseModel:   BaseModel{ID: id, CreatedAt: seedTime, UpdatedAt: seedTime},
		Username:    username,
		Name:        name,
		Phone:       phone,
		Email:       email,
		Password:    username,
		Role:        role,
		ServiceType: serviceType,
	}

	if role == RESPONDER_ROLE {
		user.Status = AVAILABLE_RESPONDER
	}

	return user
}
