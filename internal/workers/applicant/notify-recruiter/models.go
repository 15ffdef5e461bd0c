// internal/workers/applicant/notify-recruiter/models.go
package notifyrecruiter

import "recruitment-portal/internal/models"

// Input is the variable set of the applicant-intake process.
type Input = models.NewApplicantEvent

type Output struct {
	NotificationID string            `json:"notificationId"`
	Status         string            `json:"status"` // sent, failed, disabled
	Channels       map[string]string `json:"channels"`
	RecruiterPhone string            `json:"recruiterPhone,omitempty"`
	SentAt         string            `json:"sentAt"`
}
