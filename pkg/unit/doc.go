// Package unit wires the scan scheduler, presence tracker and reliable
// publisher into the desk unit's single-threaded control loop.
//
// All component state is owned by the goroutine running the loop. Inbound
// broker messages and button presses arrive through buffered channels and
// are drained at the top of each tick, so no mutex guards the scheduler,
// tracker or queue. One tick performs at most one scan, one queue delivery
// attempt and one externally visible status edge.
package unit
