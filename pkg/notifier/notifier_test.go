package notifier_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/notifier"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

type sent struct {
	title   string
	message string
}

func recorder(out *[]sent, err error) notifier.SendFunc {
	return func(title, message, icon string) error {
		*out = append(*out, sent{title, message})
		return err
	}
}

func TestNotifyRunComplete_Success(t *testing.T) {
	var got []sent
	n := notifier.NewWithSender(notifier.Config{Enabled: true}, recorder(&got, nil), nil)

	result := types.AggregateResult{Outcomes: []types.WorkOutcome{
		types.Succeeded("/t/debug", time.Second),
		types.Skipped("/t/release", types.ReasonDirectoryMissing),
	}}
	n.NotifyRunComplete(result, 1500*time.Millisecond)

	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	if strings.Contains(got[0].title, "failed") {
		t.Errorf("unexpected failure title %q", got[0].title)
	}
	if got[0].message != "1 succeeded, 1 skipped, 0 failed in 1.5s" {
		t.Errorf("unexpected message %q", got[0].message)
	}
}

func TestNotifyRunComplete_Failure(t *testing.T) {
	var got []sent
	n := notifier.NewWithSender(notifier.Config{Enabled: true}, recorder(&got, nil), nil)

	result := types.AggregateResult{Outcomes: []types.WorkOutcome{
		types.Failed("/t/debug", errors.New("boom"), 0),
	}}
	n.NotifyRunComplete(result, 90*time.Second)

	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	if !strings.HasSuffix(got[0].title, "failed") {
		t.Errorf("expected failure title, got %q", got[0].title)
	}
	if !strings.HasSuffix(got[0].message, "in 1m30s") {
		t.Errorf("unexpected message %q", got[0].message)
	}
}

func TestNotifyRunComplete_Disabled(t *testing.T) {
	var got []sent
	n := notifier.NewWithSender(notifier.Config{}, recorder(&got, nil), nil)

	n.NotifyRunComplete(types.AggregateResult{}, time.Second)

	if len(got) != 0 {
		t.Errorf("disabled notifier sent %d notifications", len(got))
	}
}

func TestNotifyRunComplete_DeliveryErrorIsIgnored(t *testing.T) {
	var got []sent
	n := notifier.NewWithSender(notifier.Config{Enabled: true}, recorder(&got, errors.New("no dbus")), nil)

	n.NotifyRunComplete(types.AggregateResult{}, 10*time.Millisecond)

	if len(got) != 1 {
		t.Errorf("expected delivery attempt, got %d", len(got))
	}
}
