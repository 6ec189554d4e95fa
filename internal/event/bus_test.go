package event

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adkplatform/internal/panel"
	"adkplatform/internal/status"
)

func newTestBus() (*Bus, *test.Hook) {
	log, hook := test.NewNullLogger()
	return NewBus(log), hook
}

func TestBus_Subscribe(t *testing.T) {
	bus, _ := newTestBus()

	called := false
	id := bus.Subscribe(ContentUpdate, func(Event) { called = true })

	assert.NotEmpty(t, id)
	assert.Equal(t, 1, bus.SubscriptionCount())
	assert.False(t, called, "handler should not run before publish")
}

func TestBus_PublishRoutesByKind(t *testing.T) {
	bus, _ := newTestBus()

	var content, statuses, all int
	bus.Subscribe(ContentUpdate, func(Event) { content++ })
	bus.Subscribe(StatusUpdate, func(Event) { statuses++ })
	bus.SubscribeAll(func(Event) { all++ })

	bus.Publish(NewAppend(panel.Terminal, "x"))
	bus.Publish(NewStatus(panel.Terminal, status.KindBusy, "working"))
	bus.Publish(NewFailure(panel.Terminal, "transport_error", errors.New("boom")))

	assert.Equal(t, 1, content)
	assert.Equal(t, 1, statuses)
	assert.Equal(t, 3, all)
}

func TestBus_SpecificHandlersBeforeWildcard(t *testing.T) {
	bus, _ := newTestBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(ContentUpdate, func(Event) { order = append(order, "first") })
	bus.Subscribe(ContentUpdate, func(Event) { order = append(order, "second") })

	bus.Publish(NewAppend(panel.IDE, "x"))

	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus, _ := newTestBus()

	calls := 0
	id := bus.Subscribe(ContentUpdate, func(Event) { calls++ })
	keep := bus.Subscribe(ContentUpdate, func(Event) {})

	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))
	assert.NotEqual(t, id, keep)

	bus.Publish(NewAppend(panel.IDE, "x"))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, bus.SubscriptionCount())
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	bus, hook := newTestBus()

	delivered := false
	bus.Subscribe(ContentUpdate, func(Event) { panic("render failed") })
	bus.Subscribe(ContentUpdate, func(Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(NewAppend(panel.CRM, "x"))
	})
	assert.True(t, delivered)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Contains(t, entry.Message, "render failed")
	assert.Equal(t, panel.CRM, entry.Data["panel"])
}

func TestBus_PreservesChunkOrder(t *testing.T) {
	bus, _ := newTestBus()

	var got []string
	bus.Subscribe(ContentUpdate, func(e Event) {
		got = append(got, e.Payload.(Append).Chunk)
	})

	sink := Sink{Bus: bus, Panel: panel.Terminal}
	var want []string
	for i := 0; i < 50; i++ {
		chunk := fmt.Sprintf("line %d\n", i)
		want = append(want, chunk)
		sink.Append(chunk)
	}

	assert.Equal(t, want, got)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus, _ := newTestBus()

	var mu sync.Mutex
	count := 0
	bus.SubscribeAll(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(NewAppend(panel.Terminal, "x"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, count)
}

func TestNewBus_NilLogger(t *testing.T) {
	bus := NewBus(nil)
	assert.NotNil(t, bus.log)
}

func TestSink(t *testing.T) {
	bus, _ := newTestBus()

	var events []Event
	bus.SubscribeAll(func(e Event) { events = append(events, e) })

	sink := Sink{Bus: bus, Panel: panel.Deploy}
	sink.Progress("Build", 25)
	sink.Replace(panel.Content{Markdown: "# Release"})
	sink.Highlight(nil)
	sink.Highlight([]string{"deploy"})

	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, panel.Deploy, e.Panel)
		assert.Equal(t, ContentUpdate, e.Kind)
		assert.False(t, e.At.IsZero())
	}
	assert.Equal(t, Progress{Step: "Build", Percent: 25}, events[0].Payload)
	assert.Equal(t, "# Release", events[1].Payload.(Replace).Content.Markdown)
	assert.Equal(t, Highlight{Targets: []string{"deploy"}}, events[2].Payload)
}

func TestNewFailure(t *testing.T) {
	e := NewFailure(panel.IDE, "rate_limited", errors.New("429"))

	assert.Equal(t, Error, e.Kind)
	f := e.Payload.(Failure)
	assert.Equal(t, "rate_limited", f.Reason)
	assert.Equal(t, "429", f.Message)

	e = NewFailure(panel.IDE, "", nil)
	assert.Empty(t, e.Payload.(Failure).Message)
}
