package receiver

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc := NewService(Options{
		Port:          0, // let the OS pick a free port
		PollInterval:  10 * time.Millisecond,
		SweepInterval: time.Hour,
	}, log)
	t.Cleanup(svc.Stop)
	return svc
}

func sendDatagram(t *testing.T, svc *Service, payload string) {
	t.Helper()
	addr, ok := svc.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)

	conn, err := net.Dial("udp", fmt.Sprintf("127.0.0.1:%d", addr.Port))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-events:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, events <-chan Event) {
	t.Helper()
	select {
	case evt := <-events:
		t.Fatalf("Unexpected event: %+v", evt)
	case <-time.After(200 * time.Millisecond):
	}
}

func subscribeAll(svc *Service, kinds ...EventKind) <-chan Event {
	events := make(chan Event, 16)
	for _, kind := range kinds {
		svc.Subscribe(kind, ObserverFunc(func(evt Event) {
			events <- evt
		}))
	}
	return events
}

func TestServiceIngestNewEntity(t *testing.T) {
	svc := newTestService(t)
	events := subscribeAll(svc, EventEntityAdded, EventEntityUpdated)

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsListening())

	sendDatagram(t, svc, `{"entity_id":"sensor.temp1","state":"21.5","attributes":{"unit_of_measurement":"°C"}}`)

	evt := waitEvent(t, events)
	assert.Equal(t, EventEntityAdded, evt.Kind)
	assert.Equal(t, "sensor.temp1", evt.EntityID)

	record, ok := svc.Get("sensor.temp1")
	require.True(t, ok)
	assert.Equal(t, "21.5", record.State)
	assert.Equal(t, "°C", record.Attributes["unit_of_measurement"])
	assert.Equal(t, "Unknown", record.BroadcasterName)
	assert.Equal(t, "127.0.0.1", record.SourceIP)

	assertNoEvent(t, events)
}

func TestServiceUpdateExistingEntity(t *testing.T) {
	svc := newTestService(t)
	events := subscribeAll(svc, EventEntityAdded, EventEntityUpdated)

	require.NoError(t, svc.Start())

	sendDatagram(t, svc, `{"entity_id":"sensor.temp1","state":"21.5"}`)
	first := waitEvent(t, events)
	assert.Equal(t, EventEntityAdded, first.Kind)

	sendDatagram(t, svc, `{"entity_id":"sensor.temp1","state":"22.0"}`)
	second := waitEvent(t, events)
	assert.Equal(t, EventEntityUpdated, second.Kind)
	assert.Equal(t, "sensor.temp1", second.EntityID)

	record, ok := svc.Get("sensor.temp1")
	require.True(t, ok)
	assert.Equal(t, "22.0", record.State)
	assert.Equal(t, 1, svc.Registry().Len())
}

func TestServiceRejectsBadDatagrams(t *testing.T) {
	svc := newTestService(t)
	events := subscribeAll(svc, EventEntityAdded, EventEntityUpdated)

	require.NoError(t, svc.Start())

	sendDatagram(t, svc, `{"entity_id":"sensor.`)
	sendDatagram(t, svc, `{"entity_id":""}`)
	sendDatagram(t, svc, `{"state":"orphan"}`)

	assertNoEvent(t, events)
	assert.Zero(t, svc.Registry().Len())
}

func TestServiceSweepEvictsStaleEntities(t *testing.T) {
	svc := newTestService(t)
	events := subscribeAll(svc, EventEntityRemoved)

	now := time.Now()
	svc.Registry().Upsert(newTestRecord("sensor.silent", "1", now.Add(-11*time.Minute)))
	svc.Registry().Upsert(newTestRecord("sensor.active", "2", now))

	swp := &sweeper{
		registry:   svc.Registry(),
		hub:        svc.hub,
		logger:     svc.logger,
		staleAfter: 10 * time.Minute,
	}
	swp.sweep(now)

	evt := waitEvent(t, events)
	assert.Equal(t, EventEntityRemoved, evt.Kind)
	assert.Equal(t, "sensor.silent", evt.EntityID)
	assertNoEvent(t, events)

	snapshot := svc.ListAll()
	assert.NotContains(t, snapshot, "sensor.silent")
	assert.Contains(t, snapshot, "sensor.active")
}

func TestServiceDisableLifecycle(t *testing.T) {
	svc := newTestService(t)
	status := subscribeAll(svc, EventStatusChanged)

	require.NoError(t, svc.Start())
	waitEvent(t, status) // start transition

	svc.Disable()
	evt := waitEvent(t, status)
	assert.Equal(t, EventStatusChanged, evt.Kind)
	assert.False(t, evt.Listening)
	assert.False(t, svc.IsListening())
	assert.False(t, svc.IsEnabled())
	assert.Nil(t, svc.LocalAddr())

	// Second disable is a no-op with no further event
	svc.Disable()
	assertNoEvent(t, status)
}

func TestServiceStartWhileDisabledIsNoOp(t *testing.T) {
	svc := newTestService(t)
	svc.Disable()

	require.NoError(t, svc.Start())
	assert.False(t, svc.IsListening())
}

func TestServiceEnableRestartsListener(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Start())

	svc.Disable()
	require.False(t, svc.IsListening())

	status := subscribeAll(svc, EventStatusChanged)
	require.NoError(t, svc.Enable())
	assert.True(t, svc.IsEnabled())
	assert.True(t, svc.IsListening())

	evt := waitEvent(t, status)
	assert.True(t, evt.Listening)
	assertNoEvent(t, status)
}

func TestServiceRegistrySurvivesStopStart(t *testing.T) {
	svc := newTestService(t)
	events := subscribeAll(svc, EventEntityAdded)

	require.NoError(t, svc.Start())
	sendDatagram(t, svc, `{"entity_id":"sensor.temp1","state":"21.5"}`)
	waitEvent(t, events)

	svc.Stop()
	assert.Equal(t, 1, svc.Registry().Len())

	require.NoError(t, svc.Start())
	_, ok := svc.Get("sensor.temp1")
	assert.True(t, ok)
}

func TestServiceStopIdempotent(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Start())

	svc.Stop()
	assert.NotPanics(t, svc.Stop)
}

func TestServiceStartErrorOnBusyPort(t *testing.T) {
	// Bind without SO_REUSEADDR so a second bind must fail
	blocker, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	require.NoError(t, err)
	defer blocker.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewService(Options{Port: blocker.LocalAddr().(*net.UDPAddr).Port}, log)

	err = svc.Start()
	require.Error(t, err)

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.False(t, svc.IsListening())
}
