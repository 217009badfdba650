// Package notifier sends a desktop notification when a run finishes
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// SendFunc delivers one notification. beeep.Notify is the default.
type SendFunc func(title, message, icon string) error

// RunNotifier reports run results on the desktop
type RunNotifier struct {
	enabled bool
	sound   bool
	send    SendFunc
	beep    func() error
	logger  logger.Logger
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	// Sound beeps after a failed run when non-empty
	Sound string
}

// New creates a notifier backed by beeep
func New(config Config, log logger.Logger) *RunNotifier {
	return NewWithSender(config, beeep.Notify, log)
}

// NewWithSender creates a notifier with a custom delivery function
func NewWithSender(config Config, send SendFunc, log logger.Logger) *RunNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &RunNotifier{
		enabled: config.Enabled,
		sound:   config.Sound != "",
		send:    send,
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
		logger: log,
	}
}

// NotifyRunComplete summarizes result. Delivery failures are logged, never returned.
func (n *RunNotifier) NotifyRunComplete(result types.AggregateResult, duration time.Duration) {
	if !n.enabled {
		return
	}

	title := "cargo apfs-compress"
	if !result.Success() {
		title = "cargo apfs-compress failed"
	}
	message := fmt.Sprintf("%s in %s", result.Summary(), formatDuration(duration))

	if err := n.send(title, message, ""); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}

	if n.sound && !result.Success() {
		if err := n.beep(); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
