// internal/workers/application/send-notification/models.go
package sendnotification

type Input struct {
	ApplicationID    string                 `json:"applicationId"`
	NotificationType string                 `json:"notificationType"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "disabled"
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeApplicationSubmitted = "application_submitted"
	TypeApplicationApproved  = "application_approved"
	TypeApplicationRejected  = "application_rejected"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// recipients is everything a template can address, loaded from the application row.
type recipients struct {
	ApplicationID string
	Status        string
	SeniorName    string
	SeniorPhone   string
	ManagerName   string
	ManagerEmail  string
	DesertionNo   string
	StartDate     string
}

// template holds the manager email and the senior SMS for one notification type.
type template struct {
	Subject string
	Body    string
	SMS     string
}
