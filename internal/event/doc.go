// Package event carries rendering events from the orchestration core to
// front ends.
//
// The core never draws anything. Panel tasks and the loop describe what
// changed as a sequence of [Event] values ({panel, kind, payload}) and
// publish them on a [Bus]; the CLI printer and the dashboard subscribe and
// decide how to render markdown, kanban cards, progress bars and images.
//
// # Event Kinds
//
//   - [ContentUpdate]: panel content changed. Payload is one of [Append],
//     [Replace], [Progress] or [Highlight].
//   - [StatusUpdate]: the status line changed. Payload is [Status].
//   - [Error]: a task failed. Payload is [Failure].
//
// # Ordering
//
// Publish is synchronous. A streaming task that publishes chunks in order
// delivers them to every subscriber in that order, and a subscriber that
// applies [Append] payloads as they arrive never reorders output.
//
// # Basic Usage
//
//	bus := event.NewBus(log)
//
//	bus.Subscribe(event.ContentUpdate, func(e event.Event) {
//	    if a, ok := e.Payload.(event.Append); ok {
//	        fmt.Print(a.Chunk)
//	    }
//	})
//
//	bus.Publish(event.NewAppend(panel.Terminal, "GET /api/v1/assets 200\n"))
package event
