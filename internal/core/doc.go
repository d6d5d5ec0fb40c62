// Package core contains the pure domain model of the picking fulfillment
// orchestrator: the PickingList and Load aggregates, the closed set of
// domain events with their metadata enrichment, and the convergence
// decision logic.
//
// Nothing in this package performs I/O. All functions are deterministic and
// operate only on their inputs, which keeps the business rules trivially
// testable without brokers, databases, or fakes.
package core
