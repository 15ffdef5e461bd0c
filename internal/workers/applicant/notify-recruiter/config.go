// internal/workers/applicant/notify-recruiter/config.go
package notifyrecruiter

import (
	"time"

	"recruitment-portal/internal/common/config"
)

type Config struct {
	SMSEnabled      bool
	SMSSenderID     string
	EmailEnabled    bool
	FromEmail       string
	HRInbox         []string
	TelegramEnabled bool
	TelegramChatID  int64
	Timeout         time.Duration
}

// LoadConfig derives the worker settings from the notifications section.
func LoadConfig(cfg *config.Config) *Config {
	n := cfg.Notifications
	return &Config{
		SMSEnabled:      n.SMS.Enabled,
		SMSSenderID:     n.SMS.SenderID,
		EmailEnabled:    n.Email.Enabled && len(n.Email.HRInbox) > 0,
		FromEmail:       n.Email.FromEmail,
		HRInbox:         n.Email.HRInbox,
		TelegramEnabled: n.Telegram.Enabled && n.Telegram.BotToken != "",
		TelegramChatID:  n.Telegram.ChatID,
		Timeout:         config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
