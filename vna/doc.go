// Package vna drives a NanoVNA-class vector network analyzer over its USB
// serial console.
//
// The device exposes a line-oriented command shell on a CDC-ACM serial port.
// Every command is terminated with a carriage return, echoed back by the
// device, answered with zero or more data lines, and closed with the "ch>"
// prompt, which the device prints without a trailing line feed.
//
// # Protocol Overview
//
// A command exchange proceeds in two halves:
//
//  1. Send: stale input is discarded, the command is written with its CR
//     terminator, and the echo line is consumed.
//  2. Fetch: non-empty lines are accumulated until the prompt sentinel
//     arrives or the response budget expires.
//
// Two timeouts govern the exchange:
//
//   - line timeout: the window for a single line read. An expired window
//     yields an empty line, not an error.
//   - response timeout: the budget for one complete response. It must cover
//     the sweep time of the largest segment; expiry returns ErrTimeout with
//     whatever lines arrived.
//
// # Segmented Sweeps
//
// A single scan command accepts a limited number of points (101 on stock
// firmware). Session.Scan partitions the sweep axis into segments of at most
// that capacity, scans each segment with a bounded retry budget, and stitches
// the per-segment data and sub-axes back together. The stitched axis is the
// realized axis and replaces the requested one.
//
// # Session States
//
// A session is closed, open, or degraded. A failed liveness probe or a
// transport error degrades the session; only Restart, which closes the port,
// waits for the console to settle and reopens, recovers it.
package vna
