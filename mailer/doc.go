// Package mailer delivers one-time verification codes.
//
// The engine calls [Sender.Send] only after the pending verification record is
// persisted, so a delivery failure never leaves a code the store does not know.
package mailer
