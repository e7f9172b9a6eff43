package event_test

import (
	"fmt"

	"github.com/dshills/nodekit/internal/event"
)

// Example_basicUsage routes a published event to a handler chosen by the
// publisher's role.
func Example_basicUsage() {
	registry := event.NewRegistry()
	_ = registry.AddFunc("saved", "editor", func(self, data any) {
		fmt.Printf("%v saw %v\n", self, data)
	})
	sub := event.NewSubscriber("status-bar", registry)

	pub := event.NewPublisher("buffer", event.StaticRoles{"editor"})
	_ = pub.AddSubscriber(sub)
	pub.PublishData("saved", "main.go")

	// Output:
	// status-bar saw main.go
}

// Example_listeningLock defers delivery until the lock is released.
func Example_listeningLock() {
	registry := event.NewRegistry()
	_ = registry.AddFunc("tick", event.RoleAll, func(_, data any) {
		fmt.Println("tick", data)
	})
	sub := event.NewSubscriber("clock", registry, event.WithInitialLock())

	pub := event.NewPublisher("timer", nil)
	_ = pub.AddSubscriber(sub)
	pub.PublishData("tick", 1)
	pub.PublishData("tick", 2)
	fmt.Println("pending:", sub.Pending())

	sub.SetListeningLock(false)

	// Output:
	// pending: 2
	// tick 1
	// tick 2
}
