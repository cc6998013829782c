package event

import "testing"

func TestPublishOrder(t *testing.T) {
	var topic Topic[int]
	var got []string
	topic.Subscribe(func(v int) { got = append(got, "first") })
	topic.Subscribe(func(v int) { got = append(got, "second") })
	topic.Publish(1)
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("delivery order = %v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	var topic Topic[SelectionChange]
	var calls int
	unsub := topic.Subscribe(func(SelectionChange) { calls++ })
	topic.Publish(SelectionChange{})
	unsub()
	unsub()
	topic.Publish(SelectionChange{})
	if calls != 1 || topic.Len() != 0 {
		t.Errorf("calls = %d len = %d", calls, topic.Len())
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	var topic Topic[struct{}]
	var a, b int
	var unsubA func()
	unsubA = topic.Subscribe(func(struct{}) { a++; unsubA() })
	topic.Subscribe(func(struct{}) { b++ })

	topic.Publish(struct{}{})
	topic.Publish(struct{}{})
	if a != 1 || b != 2 {
		t.Errorf("a = %d b = %d, want 1 and 2", a, b)
	}
}
