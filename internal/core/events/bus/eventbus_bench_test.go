package bus

import (
	"sync/atomic"
	"testing"
)

func benchEvt(t string) Event {
	return NewEvent(t, nil)
}

func makeHandler(c *int64) EventHandler {
	return func(e Event) error {
		atomic.AddInt64(c, 1)
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) OnPublish(string, string, Event)               {}
func (nopObserver) OnDelivered(string, string, int, error, int64) {}

func BenchmarkPublishSingleSubscriber(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("e", makeHandler(&c))
	ev := benchEvt("e")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(ev)
	}
}

func BenchmarkPublishManySubscribers(b *testing.B) {
	bus := New()
	var c int64
	for i := 0; i < 64; i++ {
		_, _ = bus.SubscribeTopic("pool", "e", makeHandler(&c))
	}
	ev := benchEvt("e")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.PublishToTopic("pool", ev)
	}
}

func BenchmarkPublishWithObserver(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("e", makeHandler(&c))
	bus.AddObserver(nopObserver{})
	ev := benchEvt("e")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(ev)
	}
}
