// Package config holds the host-side parameter registry and the immutable
// per-frame Snapshot the pipeline reads.
//
// # Parameters
//
// Every tunable is a named, typed, range-checked Param. Values written through
// Registry.Set are coerced to the parameter's kind (so "3", 3.0 and 3 all set
// an integer to 3) and integers are clamped into their range. Unknown names
// fail with ErrUnknownParam, values that cannot be coerced with
// ErrInvalidValue.
//
// # Snapshots
//
// Registry.Snapshot reads every parameter under a single read lock and returns
// a Snapshot value. The pipeline takes one snapshot per frame before processing
// begins, so a concurrent update is either fully visible to a frame or not at
// all.
//
// # Change Notification
//
// Observers registered with Registry.AddObserver are told about every value
// that actually changed. Notification happens after the update is committed
// and outside the lock. Processing never depends on it.
//
// # Persistence
//
// LoadFile and SaveFile read and write YAML parameter files; a Watcher reloads
// a file whenever it changes on disk.
package config
