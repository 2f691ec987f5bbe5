// Package ttlcache provides a small in-memory cache with per-entry
// timestamps, a fixed time-to-live, and an optional size bound.
//
// Entries expire logically: a read treats an entry older than the TTL as
// absent even while it is still physically stored. Physical removal happens
// lazily during writes, driven by a min-heap of insertion timestamps, so a
// single write never pays for the whole expired backlog.
//
// Set never overwrites a live key. A write to a key that already holds an
// unexpired entry fails with KeyExistsError carrying the previous value,
// which makes duplicate detection race-safe for callers such as a nonce
// store: whichever writer loses the race learns about the winner's value.
//
// Reads (Get, Contains, Len, Keys) take no lock. All mutation runs under a
// single mutex, which can be shared between related caches via Config.Lock
// so that their writes serialize against each other.
package ttlcache
