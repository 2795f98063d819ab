// Package audit implements async event dispatching for user commands.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: one record per finished command.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; the client emits one per dispatched command.
//
// # What this package must NOT do
//
//   - Record session tokens, passwords or auth data.
//   - Import goParse or any sibling internal package.
package audit
