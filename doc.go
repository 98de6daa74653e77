// A thread-safe, fixed-memory sliding window rate limiter, plus a load harness
// to drive it under concurrency and report the throughput it actually let through.
//
// Features:
//
// - Rolling one-second window split into fine time slices (1ms by default)
//
// - Fixed O(R) memory and amortized O(1) work per admission, aging only the slices that elapsed
//
// - One extra slice of slack to absorb clock and scheduling jitter at the window boundary
//
// - Load harness with per-bucket admitted/rejected counters and a rolling per-second column
//
// - Optional Prometheus metrics and pluggable logging
//
// - Thread safe
//
// The time source must be monotonic. time.Now is fine: Go times carry a monotonic
// reading that Time.Sub uses. A clock that jumps backward breaks the aging invariant.
package ratelimit
