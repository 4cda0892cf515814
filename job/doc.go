// Package job defines the job entity, its state machine, typed handler
// definitions, and the store interface.
//
// # Job Entity
//
// A [Job] represents one unit of deferred, trackable work. It carries a
// structured payload (opaque to the lifecycle engine) and progresses
// through a strict state machine:
//
//	pending → queued → running → completed
//	pending → queued → running → failed
//	pending → queued → failed      (abort before running)
//	pending → queued → cancelled
//	pending → cancelled
//
// completed, failed, and cancelled are terminal. [Status.CanTransitionTo]
// exposes the graph; every other transition is rejected by the manager
// before any mutation.
//
// Fields of note:
//   - Type: async or sync, how an executor should invoke the work
//   - StartedAt / CompletedAt: set on the corresponding transition
//   - Result: set only on completion; Error: set only on failure
//
// # Defining a Job
//
// Use [Definition] with a typed handler. The structured payload is
// round-tripped through JSON into the typed value before the handler
// runs, and the returned map becomes the job's result:
//
//	var SendEmail = job.NewDefinition("send_email",
//	    func(ctx context.Context, input EmailInput) (map[string]any, error) {
//	        return mailer.Send(input.To, input.Subject, input.Body)
//	    },
//	)
//
// # Registry
//
// [Registry] maps job names to type-erased [HandlerFunc] values.
// Register definitions at startup via [RegisterDefinition]. The worker
// package looks handlers up by job name at execution time.
//
// # Store
//
// [Store] is the record-keeping contract: the ID-to-job mapping plus
// the FIFO queue of IDs awaiting the running transition. The queue is a
// secondary index over store state; entries whose job is no longer
// queued are lazily discarded by the manager when encountered.
package job
