// Package audit delivers security-relevant events (signups, OTP outcomes,
// rotations, reuse detection, signouts) to a pluggable Sink.
//
// The Dispatcher buffers events and hands them to the sink from one
// goroutine, either dropping or blocking when the buffer is full. Which
// events to emit is decided by the engine, not here.
package audit
