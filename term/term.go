// Package term defines the fixed-width opaque terms the core operates on:
// 64-bit keys and values with no structure the library interprets itself.
// Embedders that need richer keys or values are expected to encode them
// into a Key/Value pair themselves (e.g. via a hash or an interned id) —
// arbitrary-key support is explicitly out of scope for the core.
package term

// Key is a fixed-width, totally ordered (by <) comparable key.
type Key = uint64

// Value is a fixed-width opaque payload. The core never interprets it.
type Value = uint64
