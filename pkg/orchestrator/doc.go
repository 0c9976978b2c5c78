// Package orchestrator drives the outbound job state machine of spec.md
// §4.8. Run executes its stages in the order NEW -> VALIDATE ->
// BUILD_HEADERS -> CIRCUIT_CHECK -> SEND -> PARSE_RESPONSE -> UPDATE_LOG ->
// (CHAIN|DONE): the body is built and its AuditEntry created before the
// per-(property, message-type) lock is taken, and the endpoint's circuit
// breaker is consulted inside transport.Client.Send, not before
// BUILD_HEADERS. A Job is one outbound unit
// of work (one MessageType for one property, possibly a sub-batch of a
// larger request); Submit splits an oversized batch and persists each
// sub-batch's AuditEntry, and Run executes one Job end to end.
//
// The per-(property, message-type) single-flight ordering invariant is
// enforced by a Redis-backed Locker rather than in-process state, since
// the orchestrator is expected to run behind more than one gateway
// replica. No queue runtime is supplied here — per spec.md §9's design
// note, the job-queue trait mix-ins become a concrete Job type with
// execute/backoff/uniqueId hooks and the host supplies the runtime
// (a worker pool, a cron sweep over RETRY_PENDING entries, whatever fits
// the deployment).
package orchestrator
