package domain

import "time"

// VerificationChallenge is the live one-time code gating an account from
// unverified to verified. A challenge exists if and only if a code is live:
// there is no "code without expiry" state.
type VerificationChallenge struct {
	Email    Email
	CodeHash string
	Expires  time.Time
}

func (c *VerificationChallenge) ExpiredAt(now time.Time) bool {
	return now.After(c.Expires)
}
