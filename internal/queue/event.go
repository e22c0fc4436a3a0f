// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer that move them.
package queue

import "time"

// EmailKind selects the template the worker renders.
type EmailKind string

const (
	EmailVerify        EmailKind = "verify_email"
	EmailResetPassword EmailKind = "reset_password"
)

// EmailEvent asks the worker to send one email. Token is the verification
// code or the password reset token, depending on Kind.
type EmailEvent struct {
	Kind        EmailKind `json:"kind"`
	To          string    `json:"to"`
	Name        string    `json:"name"`
	Token       string    `json:"token"`
	RequestedAt time.Time `json:"requested_at"`
}
