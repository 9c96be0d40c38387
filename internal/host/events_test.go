package host

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/soundpp/internal/ipc"
)

func TestBrokerFansOutAndDropsWhenFull(t *testing.T) {
	b := NewBroker()
	a, cancelA := b.Subscribe()
	c, cancelC := b.Subscribe()
	defer cancelC()
	require.Equal(t, 2, b.Subscribers())

	b.Publish(ipc.Event{Event: EventLibraryChanged})
	require.Equal(t, EventLibraryChanged, (<-a).Event)
	require.Equal(t, EventLibraryChanged, (<-c).Event)

	cancelA()
	cancelA()
	_, open := <-a
	require.False(t, open)
	require.Equal(t, 1, b.Subscribers())

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(ipc.Event{Event: EventNotification})
	}
	require.Len(t, c, subscriberBuffer)
}

func TestBrokerCloseEndsSubscriptions(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	b.Close()
	_, open := <-ch
	require.False(t, open)
	cancel()

	late, _ := b.Subscribe()
	_, open = <-late
	require.False(t, open)
	b.Publish(ipc.Event{Event: EventQuit})
}
