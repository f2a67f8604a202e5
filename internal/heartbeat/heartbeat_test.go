package heartbeat

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/doctran/internal/logging"
)

func TestRunZeroIntervalIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Config{Output: &buf, Level: "debug"})
	require.NoError(t, err)

	stop := Run(log, "test", 0)
	time.Sleep(10 * time.Millisecond)
	stop()
	stop() // must be safe to call twice

	assert.Empty(t, buf.String())
}

func TestRunEmitsHeartbeatAndStops(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Config{Output: &buf, Level: "debug"})
	require.NoError(t, err)

	stop := Run(log, "long-call", 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	stop()
	stop()

	assert.Contains(t, buf.String(), "model call in progress")
	assert.Contains(t, buf.String(), "long-call")
}

func TestWithHeartbeatReturnsFnError(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Config{Output: &buf, Level: "debug"})
	require.NoError(t, err)

	called := false
	err = WithHeartbeat(log, "work", time.Hour, func() error {
		called = true
		return assert.AnError
	})

	assert.True(t, called)
	assert.ErrorIs(t, err, assert.AnError)
}
