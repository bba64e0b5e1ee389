// Package queue defines message payloads exchanged over the message broker.
package queue

// VerificationEmailEvent is published when a verification code is issued.
// It carries everything the mail consumer needs to deliver the code
// without querying the primary database.
type VerificationEmailEvent struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	IssuedAt string `json:"issued_at"`
}

// VerificationQueueName is the durable queue the verification mail
// events travel through.
const VerificationQueueName = "mail.verification"
