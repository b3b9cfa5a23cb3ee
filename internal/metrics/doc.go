// Package metrics records conversion run metrics.
//
// Components receive a Recorder through dependency injection and default to NoopRecorder,
// so callers never check for nil:
//
//	p := pipeline.New(graph) // NoopRecorder
//	p := pipeline.New(graph, pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registry. A one-shot CLI run has
// no scrape endpoint, so the registry is written out with WriteTextfile for the node
// exporter textfile collector.
package metrics
