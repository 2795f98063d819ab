// Package task provides a small generic future used to deliver the results of
// asynchronous backend commands.
//
// A [Task] completes exactly once, with either a value or an error. Callers
// wait with [Task.Await] (bounded by a context) or select on [Task.Done].
// [Then] chains a continuation that runs after the parent completes.
//
// # What this package must NOT do
//
//   - Know anything about HTTP, commands, or response decoding.
//   - Retain goroutines after the supplied function returns.
package task
