// Package foreman provides a small, library-first job lifecycle engine
// for Go. It tracks units of deferred work through a strict state
// machine, hands them to a worker loop in FIFO order, and fans
// lifecycle events out to in-process subscribers.
//
// Foreman is a library, not a service. Front ends (HTTP handlers, CLI
// commands) and executors are callers; the engine owns only status
// metadata, never the execution of job payloads.
//
// # Quick Start
//
//	mgr, err := manager.New(foreman.DefaultConfig())
//	if err != nil { ... }
//	_ = mgr.Start(ctx)
//
//	j, _ := mgr.CreateJob(ctx, "send-email", job.TypeAsync, payload)
//	_ = mgr.SubmitJob(ctx, j.ID)
//
// A worker loop polls NextJob, marks jobs running, and reports the
// outcome with CompleteJob or FailJob. The worker package provides a
// ready-made pool.
//
// # Architecture
//
// Each subsystem lives in its own package: job (entity, state machine,
// handler registry), event (fan-out bus), store/memory (the in-memory
// store and FIFO queue), manager (lifecycle orchestration and backend
// selection), worker (polling pool and executor), and observability
// (an OpenTelemetry event subscriber).
//
// All entity IDs are TypeIDs: type-prefixed, K-sortable (UUIDv7-based)
// identifiers in the form "prefix_suffix".
package foreman
