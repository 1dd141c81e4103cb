package auth

import "time"

const (
	// Token constants.
	TokenKeySize     = 32
	DefaultAccessTTL = 15 * time.Minute

	// Custom claim names understood by the verifier.
	ClaimProfileID        = "profile_id"
	ClaimDefaultProfileID = "default_profile_id"
	ClaimChild            = "child"
)
