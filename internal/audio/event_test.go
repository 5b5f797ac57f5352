package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingClient struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
}

func (c *recordingClient) record(ev Event) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *recordingClient) OnDefaultDeviceChanged(flow DataFlow, role Role, id string) {
	c.record(Event{Kind: EventDefaultDeviceChanged, DeviceID: id, Flow: flow, Role: role})
}
func (c *recordingClient) OnDeviceAdded(id string) {
	c.record(Event{Kind: EventDeviceAdded, DeviceID: id})
}
func (c *recordingClient) OnDeviceRemoved(id string) {
	c.record(Event{Kind: EventDeviceRemoved, DeviceID: id})
}
func (c *recordingClient) OnDeviceStateChanged(id string, state DeviceState) {
	c.record(Event{Kind: EventDeviceStateChanged, DeviceID: id, State: state})
}
func (c *recordingClient) OnPropertyValueChanged(id string, key PropertyKey) {
	if id == "panic" {
		panic("boom")
	}
	c.record(Event{Kind: EventPropertyValueChanged, DeviceID: id, Key: key})
}

func TestQueue_DeliversInOrder(t *testing.T) {
	c := &recordingClient{}
	q := NewQueue(c, 16)

	sent := []Event{
		{Kind: EventDeviceAdded, DeviceID: "a"},
		{Kind: EventDeviceStateChanged, DeviceID: "a", State: StateUnplugged},
		{Kind: EventDefaultDeviceChanged, DeviceID: "b", Flow: FlowRender, Role: RoleMultimedia},
		{Kind: EventPropertyValueChanged, DeviceID: "b", Key: PKeyAudioEndpointFormFactor},
		{Kind: EventDeviceRemoved, DeviceID: "a"},
	}
	for _, ev := range sent {
		assert.True(t, q.Post(ev))
	}
	q.Close()

	assert.Equal(t, sent, c.events)
	assert.Zero(t, q.Dropped())
}

func TestQueue_DropsWhenFull(t *testing.T) {
	c := &recordingClient{block: make(chan struct{})}
	q := NewQueue(c, 1)

	// The dispatcher takes at most one event off the channel before blocking,
	// so of three posts at least one must be dropped.
	results := []bool{
		q.Post(Event{Kind: EventDeviceAdded, DeviceID: "1"}),
		q.Post(Event{Kind: EventDeviceAdded, DeviceID: "2"}),
		q.Post(Event{Kind: EventDeviceAdded, DeviceID: "3"}),
	}
	close(c.block)
	q.Close()

	accepted := 0
	for _, ok := range results {
		if ok {
			accepted++
		}
	}
	assert.True(t, results[0])
	assert.Equal(t, uint64(3-accepted), q.Dropped())
	assert.Len(t, c.events, accepted)
}

func TestQueue_PostAfterClose(t *testing.T) {
	c := &recordingClient{}
	q := NewQueue(c, 0)
	q.Close()
	q.Close()

	assert.False(t, q.Post(Event{Kind: EventDeviceAdded, DeviceID: "late"}))
	assert.Empty(t, c.events)
}

func TestQueue_SurvivesClientPanic(t *testing.T) {
	c := &recordingClient{}
	q := NewQueue(c, 4)

	q.Post(Event{Kind: EventPropertyValueChanged, DeviceID: "panic"})
	q.Post(Event{Kind: EventDeviceAdded, DeviceID: "after"})
	q.Close()

	assert.Equal(t, []Event{{Kind: EventDeviceAdded, DeviceID: "after"}}, c.events)
}
