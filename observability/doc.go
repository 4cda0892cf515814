// Package observability provides an OpenTelemetry metrics subscriber
// for the job event bus. Metrics counts every lifecycle event, tracks
// the queue depth, and measures job execution time from the started to
// the completed or failed event.
//
// Subscribe it like any other handler:
//
//	m := observability.NewMetrics()
//	mgr.Subscribe(m.Handle)
package observability
