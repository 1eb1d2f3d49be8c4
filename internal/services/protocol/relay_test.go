package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRelay(port *fakePort, settle time.Duration) *RelayController {
	cfg := RelayConfig{Device: "/dev/ttyUSB0", SettleDelay: settle}
	return NewRelayController(cfg, fakeOpener(port), NewLogger("off"))
}

func TestRelayCommandFormat(t *testing.T) {
	port := newFakePort(nil)
	rc := testRelay(port, time.Millisecond)

	require.NoError(t, rc.SetChannel(context.Background(), 3, true))
	require.Equal(t, "3 o ", port.written.String())
	require.True(t, port.closed)

	port2 := newFakePort(nil)
	rc2 := testRelay(port2, time.Millisecond)
	require.NoError(t, rc2.SetChannel(context.Background(), 12, false))
	require.Equal(t, "12 f ", port2.written.String())
}

func TestRelaySettleDelayBeforeFirstCommand(t *testing.T) {
	port := newFakePort(nil)
	rc := testRelay(port, 120*time.Millisecond)

	start := time.Now()
	require.NoError(t, rc.SetChannel(context.Background(), 1, true))
	require.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}

func TestRelaySettleIsCancelable(t *testing.T) {
	port := newFakePort(nil)
	rc := testRelay(port, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rc.SetChannel(ctx, 1, true)
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.True(t, port.closed, "порт закрывается и при отмене")
	require.Empty(t, port.written.String(), "команда не должна уходить до окончания паузы")
}

func TestRelayDefaultBaud(t *testing.T) {
	var gotBaud int
	opener := func(device string, baud int) (Port, error) {
		gotBaud = baud
		return newFakePort(nil), nil
	}
	rc := NewRelayController(RelayConfig{Device: "/dev/ttyUSB0", SettleDelay: time.Millisecond}, opener, NewLogger("off"))
	require.NoError(t, rc.SetChannel(context.Background(), 1, true))
	require.Equal(t, DefaultRelayBaud, gotBaud)
}
