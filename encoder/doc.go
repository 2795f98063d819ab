// Package encoder converts arbitrary values into the JSON-compatible shapes the
// backend's REST API expects.
//
// Plain values (strings, numbers, booleans, maps, slices) pass through.
// Special values are rewritten into typed envelopes: [Pointer] becomes
// {"__type":"Pointer",...}, time.Time becomes a Date, []byte becomes Bytes, and
// so on. Values that cannot be represented produce an [*EncodeError].
//
// # What this package must NOT do
//
//   - Perform network I/O or look up objects remotely.
//   - Silently drop values it does not understand.
package encoder
