package models

import "encoding/json"

// Notification is an in-app message produced by the reminder job.
type Notification struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	IsRead     bool   `json:"isRead"`
	CreatedAt  string `json:"createdAt"`
}

// Activity is one audit-log row.
type Activity struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"userId"`
	UserName   *string         `json:"userName"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  string          `json:"createdAt"`
}

// Testimonial is an uploaded sea-service testimonial or discharge book scan.
type Testimonial struct {
	ID        string  `json:"id"`
	VesselID  *string `json:"vesselId"`
	FileURL   string  `json:"fileUrl"`
	FileName  string  `json:"fileName"`
	FileSize  int64   `json:"fileSize"`
	FileType  string  `json:"fileType"`
	CreatedAt string  `json:"createdAt"`
}
