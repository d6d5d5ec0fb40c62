// Package shell contains the imperative supporting pieces shared by all
// consumers: the error taxonomy that drives acknowledge-vs-redeliver
// decisions, the per-message context that replaces any ambient state, the
// optimistic-concurrency retry loop, the defensive decoder for foreign
// payloads, and the JSON codec for the domain event sum type.
package shell
