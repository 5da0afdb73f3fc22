// Package shutdown provides graceful shutdown for pcd-server.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-bounded hook execution
//   - Named cleanup hooks, run in reverse order of registration
//
// The same hooks unwind a partially started server: when a later start
// step fails, Run undoes the steps that already completed.
//
// Usage:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown("http", srv.Shutdown)
//	if err := h.Wait(); err != nil { ... }
package shutdown
