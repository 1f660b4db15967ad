package infrastructure

import (
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// NotificationService sends desktop notifications about finished acquisitions
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	exec   func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		exec: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if n == nil || !n.config.Enabled {
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		err = n.exec("osascript", "-e", script)
	case "notify-send":
		err = n.exec("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Warn("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}
	return nil
}

// NotifyCompleted announces a finished acquisition
func (n *NotificationService) NotifyCompleted(rawInput string, provider domain.ProviderID, path string) {
	n.Send("Acquisition Completed", fmt.Sprintf("%s via %s: %s", truncateString(rawInput, 40), provider, path))
}

// NotifyFailed announces a failed acquisition
func (n *NotificationService) NotifyFailed(rawInput string, err error) {
	n.Send("Acquisition Failed", fmt.Sprintf("%s: %s", truncateString(rawInput, 40), truncateString(err.Error(), 80)))
}

// truncateString keeps the first maxLen characters of s
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
