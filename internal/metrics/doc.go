// Package metrics provides observability hooks for target and sweep execution.
//
// The package relies on the Null Object pattern: every consumer holds a
// Recorder, and the default NoopRecorder makes nil checks unnecessary. To
// activate collection, swap in NewPrometheusRecorder:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	engine := recipe.NewEngine(exec).WithRecorder(recorder)
//
// The daemon exposes the registry on /metrics; one-shot CLI commands keep the
// noop default.
package metrics
