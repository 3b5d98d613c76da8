package utils

import (
	"github.com/sasha-s/go-deadlock"
)

// Topic fans values out to any number of subscribers. Subscriber channels are
// buffered; a subscriber that falls behind loses values rather than stalling
// the publisher, which is what we want for anything published from a tick.
type Topic[T any] struct {
	subscribers map[chan T]struct{}
	mutex       deadlock.Mutex
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{
		subscribers: make(map[chan T]struct{}),
	}
}

func (t *Topic[T]) Publish(value T) {
	t.mutex.Lock()
	for subscriber := range t.subscribers {
		select {
		case subscriber <- value:
		default:
		}
	}
	t.mutex.Unlock()
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
}

func (t *Topic[T]) Subscribe() *Subscriber[T] {
	channel := make(chan T, 16)
	t.mutex.Lock()
	t.subscribers[channel] = struct{}{}
	t.mutex.Unlock()

	return &Subscriber[T]{channel, t}
}

func (s *Subscriber[T]) Recv() <-chan T {
	return s.channel
}

func (s *Subscriber[T]) Done() {
	topic := s.topic
	topic.mutex.Lock()
	delete(topic.subscribers, s.channel)
	topic.mutex.Unlock()
}
