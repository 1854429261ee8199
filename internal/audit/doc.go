// Package audit turns finished engine operations into audit events.
//
// # Components
//
//   - [Record] — one finished operation: name, status, raw email, client IP,
//     error and the state transitions it caused.
//   - [Dispatcher] — buffered queue of records with drop-if-full or
//     block-if-full semantics and a single delivery worker.
//   - [Event] — one audit line. A record expands to its operation event
//     followed by one event per transition, all with the email masked.
//   - [Sink] — event consumer: [ChannelSink], [JSONWriterSink], [ZapSink],
//     [NoOpSink].
//
// # Architecture boundaries
//
// The Engine decides what a record contains. This package owns masking,
// fan-out, buffering and delivery. A dropped record loses all of its events.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import mongoAuth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
