package process

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
)

func TestManager_SignalCancelsContext(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(logger.CreateLoggerWithOutput("", "info", &buf))

	var order []int
	m.RegisterShutdownHandler(func() { order = append(order, 1) })
	m.RegisterShutdownHandler(func() { order = append(order, 2) })

	ctx := m.Start(context.Background())
	defer m.Stop()

	m.sigChan <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled by the signal")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	m.Stop()
	assert.Equal(t, []int{2, 1}, order)
	assert.Contains(t, buf.String(), "Interrupted")
}

func TestManager_StopWithoutSignal(t *testing.T) {
	m := NewManager(nil)
	called := false
	m.RegisterShutdownHandler(func() { called = true })

	ctx := m.Start(context.Background())
	m.Stop()
	m.Stop()

	assert.False(t, called, "handlers run only on interrupt")
	assert.Error(t, ctx.Err(), "derived context is released on stop")
}

func TestManager_ParentCancellation(t *testing.T) {
	m := NewManager(nil)
	parent, cancel := context.WithCancel(context.Background())

	ctx := m.Start(parent)
	defer m.Stop()
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("parent cancellation did not propagate")
	}
}
