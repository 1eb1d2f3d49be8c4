package instrument

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeConfigStore struct {
	descriptors map[string]*models.TransportDescriptor
	legacy      map[models.MeasurementKind]*models.LegacyCommand
}

func (f *fakeConfigStore) GetDescriptor(id string) (*models.TransportDescriptor, error) {
	if d, ok := f.descriptors[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown instrument '%s'", id)
}

func (f *fakeConfigStore) GetLegacyCommand(kind models.MeasurementKind) (*models.LegacyCommand, error) {
	if c, ok := f.legacy[kind]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no legacy command for '%s'", kind)
}

func (f *fakeConfigStore) ListInstruments() []string {
	ids := make([]string, 0, len(f.descriptors))
	for id := range f.descriptors {
		ids = append(ids, id)
	}
	return ids
}

// fakeTransport считает команды и фиксирует закрытие.
type fakeTransport struct {
	mu       sync.Mutex
	commands []string
	closed   bool
	response string
}

func (t *fakeTransport) Send(ctx context.Context, command string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commands = append(t.commands, command)
	return nil
}

func (t *fakeTransport) SendRecv(ctx context.Context, command string) (string, error) {
	if err := t.Send(ctx, command); err != nil {
		return "", err
	}
	return t.response, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
}

func testPool(opens *atomic.Int32, transports *[]*fakeTransport) (*ConnectionPool, *fakeConfigStore) {
	var mu sync.Mutex
	store := &fakeConfigStore{
		descriptors: map[string]*models.TransportDescriptor{
			"PSU1": {Type: models.TransportTCP, Address: "10.0.0.5:5025", DriverType: "power_supply"},
		},
	}
	opener := func(ctx context.Context, desc *models.TransportDescriptor) (Transport, error) {
		opens.Add(1)
		time.Sleep(20 * time.Millisecond) // Окно для гонки конкурентных открытий
		tr := &fakeTransport{response: "3.3"}
		mu.Lock()
		*transports = append(*transports, tr)
		mu.Unlock()
		return tr, nil
	}
	return NewConnectionPool(store, opener, testLogger()), store
}

func TestConcurrentFirstUseOpensOneConnection(t *testing.T) {
	var opens atomic.Int32
	var transports []*fakeTransport
	pool, _ := testPool(&opens, &transports)

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.GetDriver(context.Background(), "PSU1")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), opens.Load(), "конкурентное первое обращение должно открыть ровно одно соединение")
	require.Len(t, transports, 1)
}

func TestDriverInitializedExactlyOnce(t *testing.T) {
	var opens atomic.Int32
	var transports []*fakeTransport
	pool, _ := testPool(&opens, &transports)

	for i := 0; i < 3; i++ {
		_, err := pool.GetDriver(context.Background(), "PSU1")
		require.NoError(t, err)
	}

	require.Len(t, transports, 1)
	initCount := 0
	for _, cmd := range transports[0].commands {
		if cmd == "*CLS" {
			initCount++
		}
	}
	require.Equal(t, 1, initCount, "инициализация выполняется один раз на соединение")
}

func TestResetForcesReopenAndReinit(t *testing.T) {
	var opens atomic.Int32
	var transports []*fakeTransport
	pool, _ := testPool(&opens, &transports)

	_, err := pool.GetDriver(context.Background(), "PSU1")
	require.NoError(t, err)

	require.NoError(t, pool.Reset(context.Background(), "PSU1"))
	require.True(t, transports[0].closed)

	_, err = pool.GetDriver(context.Background(), "PSU1")
	require.NoError(t, err)

	require.Equal(t, int32(2), opens.Load())
	require.Len(t, transports, 2)
	require.Contains(t, transports[1].commands, "*CLS", "после сброса инициализация повторяется")
}

func TestUnknownInstrument(t *testing.T) {
	var opens atomic.Int32
	var transports []*fakeTransport
	pool, _ := testPool(&opens, &transports)

	_, err := pool.GetDriver(context.Background(), "NOPE")
	require.ErrorIs(t, err, apperrors.ErrInstrumentNotFound)
	require.Equal(t, int32(0), opens.Load())
}

func TestStatusReflectsPoolState(t *testing.T) {
	var opens atomic.Int32
	var transports []*fakeTransport
	pool, _ := testPool(&opens, &transports)

	status, err := pool.Status("PSU1")
	require.NoError(t, err)
	require.False(t, status.Connected)
	require.False(t, status.Initialized)

	_, err = pool.GetDriver(context.Background(), "PSU1")
	require.NoError(t, err)

	status, err = pool.Status("PSU1")
	require.NoError(t, err)
	require.True(t, status.Connected)
	require.True(t, status.Initialized)
	require.Equal(t, int64(1), status.UseCount)
}
