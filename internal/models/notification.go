package models

// Notification channels used by the recruiter notifier.
const (
	ChannelSMS      = "sms"
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// Delivery statuses.
const (
	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
)

// NewApplicantEvent is the process payload started after a successful
// submission.
type NewApplicantEvent struct {
	ApplicantID   int64  `json:"applicantId"`
	NamaLengkap   string `json:"namaLengkap"`
	NoHP          string `json:"noHp"`
	PosisiDilamar string `json:"posisiDilamar"`
	Penempatan    string `json:"penempatan"`
	CreatedAt     string `json:"createdAt"`
}
