// Package account holds the persisted account model and the document-store contract
// the engine reads and writes through.
//
// The engine never touches documents directly. It works with a [State] snapshot
// (the six tracked fields plus the document id) and emits a [Patch]. A [Fields]
// table maps those logical fields onto the host's property names, and a
// [Projection] selects the sanitized view returned to callers as the host's own
// document type.
//
// Two [Store] implementations ship here: [MongoStore] on top of the official
// MongoDB driver, and [MemoryStore], an in-process store with the same encoding
// rules used by tests and demos.
//
// # What this package must NOT do
//
//   - Decide account transitions. Blocking, attempt counting and activation are
//     owned by the engine.
//   - Hash passwords or generate codes.
package account
