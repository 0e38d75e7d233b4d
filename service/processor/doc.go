// Package processor hosts the workers executing asynchronous continuations.
// Each worker consumes a continuation from the queue and asks the engine to
// continue the deferred activity instance; failed continuations are nacked so
// that the queue can redeliver them.
package processor
