// Package event provides the role-scoped publish/subscribe layer shared by
// every node.
//
// # Architecture
//
//	┌─────────────┐  Publish(name)   ┌──────────────┐  Dispatch   ┌────────────┐
//	│  Publisher  │ ───────────────▶ │  Subscriber  │ ──────────▶ │  Registry  │
//	│  roles      │  snapshot of     │  FIFO queue  │  per record │  event →   │
//	│  observers  │  observers       │  lock        │             │  role →    │
//	└─────────────┘                  └──────────────┘             │  handlers  │
//	                                                              └────────────┘
//
// A Publisher broadcasts a named event to its observers, tagged with the
// publisher's roles at the moment of broadcast. A Subscriber queues every
// captured event and, while its listening lock is released, drains the
// queue in arrival order through its Registry.
//
// # Roles
//
// Handlers are registered per (event, role). The role says which publisher
// the handler listens to:
//
//	#self   events the node publishes to itself (the default)
//	#all    any publisher, consulted only after role-specific entries
//	a,b     shorthand for two independent registrations, "a" and "b"
//
// Resolution walks the publisher's roles in the publisher's order and
// uses the first role that has handlers; registration order in the
// registry does not matter.
//
// # Re-entrancy
//
// Handlers may publish, subscribe, unsubscribe, register handlers, and
// toggle the listening lock while a drain is in progress. Publishers
// iterate a snapshot of their observers, and the drain loop re-checks the
// lock before every record.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use. All dispatch is
// synchronous on the caller's goroutine.
package event
