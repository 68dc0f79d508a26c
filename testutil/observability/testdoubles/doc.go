// Package testdoubles provides spies for the lending observability interfaces.
//
// The spies record calls made through lending.Logger, lending.ContextualLogger,
// lending.MetricsCollector, and lending.TracingCollector, plus a slog.Handler spy for
// tests that go through *slog.Logger. All spies are safe for concurrent use.
package testdoubles
