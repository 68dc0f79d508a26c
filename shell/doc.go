// Package shell holds the cross-cutting plumbing shared by the circulation and catalog services:
// exponential-backoff retry on concurrency conflicts and per-operation instrumentation
// (operation ids, spans, metrics, logs and outcome classification).
package shell
