// Package manager orchestrates the job lifecycle: it owns the job
// store, the FIFO queue, and the event bus, and exposes the
// state-machine operations behind the [Manager] interface.
//
// # Lifecycle
//
// A manager must be started before it accepts jobs and discards all
// state when stopped:
//
//	mgr, err := manager.New(foreman.DefaultConfig())
//	if err != nil { ... }
//	_ = mgr.Start(ctx)
//	defer mgr.Stop(ctx)
//
// # Operations
//
// CreateJob inserts a pending job; SubmitJob queues it FIFO; a worker
// claims it via NextJob and drives StartJob, then CompleteJob or
// FailJob. CancelJob aborts a job that has not started. Every operation
// validates the state graph before mutating and publishes a lifecycle
// event after mutating, so a returned error always means nothing
// changed.
//
// # Concurrency
//
// Operations may be invoked from any number of goroutines. Racing
// transitions on the same job are serialized: exactly one wins and the
// loser receives a StateError carrying the post-transition status.
//
// # Backends
//
// [New] selects the implementation by Config.Backend. Only
// [NewMemory] exists today.
package manager
