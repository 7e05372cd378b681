// Package observability provides the logger, metrics, tracing and admin
// HTTP surface of the host.
//
// Metrics are registered on an injected prometheus registry so tests and
// embedders can keep them apart from the default one. Tracing goes through
// the global otel provider, a no-op until InstallTracerProvider is called.
package observability
