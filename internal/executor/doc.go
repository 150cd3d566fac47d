// Package executor defines what the scheduling driver does when an entry
// falls due, and provides the two built-in executors.
//
// An Executor owns the current schedule. It can apply one entry, bring
// devices in line with the last entry that should already have run, and
// reload its schedule from the original source.
//
//   - Switch drives real devices through a device.Controller.
//   - DryRun only logs what it would do.
//
// Executors are not safe for concurrent use. The driver calls them from a
// single goroutine.
package executor
