// Package event provides a synchronous publish/subscribe bus for editor
// notifications.
//
// Topics are hierarchical dot-separated names ("document.changed",
// "history.undo"). Subscriptions may use wildcards: "*" matches exactly
// one segment, "**" matches zero or more trailing segments.
//
//	bus := event.NewBus()
//	remove, _ := bus.Subscribe("history.**", func(e event.Event) {
//		// runs for history.pushed, history.undo, ...
//	})
//	defer remove()
//
//	bus.Publish(event.NewEvent(event.TopicHistoryUndo, payload, "engine"))
//
// Delivery is synchronous and in subscription order; the editor host is
// a single cooperative loop, so handlers run inline with the operation
// that published the event. A panicking handler is recovered and counted
// without disturbing later handlers.
package event
