// Package lifecycle holds the state machine of a log writer.
//
// A writer moves through Stopped, Starting, Running, Stopping and Crashed:
//
//	Stopped  -> Starting
//	Starting -> Running | Stopping | Crashed
//	Running  -> Stopping | Crashed
//	Stopping -> Stopped | Crashed
//	Crashed  -> Starting
//
// Manager enforces these transitions and tracks background goroutines so a
// stop can wait for them with a bound:
//
//	m := lifecycle.NewManager(logger, nil)
//	_ = m.TransitionTo(lifecycle.StateStarting, "start")
//	ctx := m.Begin(parent)
//	m.Go(func() { <-ctx.Done(); flush() })
//	_ = m.TransitionTo(lifecycle.StateRunning, "started")
//
//	_ = m.TransitionTo(lifecycle.StateStopping, "stop")
//	m.Cancel()
//	err := m.Wait(30 * time.Second)
//
// Backoff spaces out retries of a failing operation.
//
// See version.go for version constants that can be used programmatically.
package lifecycle
