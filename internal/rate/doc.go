// Package rate provides Redis-backed fixed-window attempt counters used to
// throttle outbound log-in and password-reset commands before they reach the
// backend.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - gpl: failed log-ins per username
//   - gpr: password reset requests per email
//
// # What this package must NOT do
//
//   - Decide which command outcomes count as failures (the client does).
//   - Be imported outside the goParse module.
package rate
