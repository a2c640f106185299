package models

import "github.com/golang-jwt/jwt/v5"

// LearnerClaims are the claims this service reads from upstream-issued access
// tokens. Token issuance and session lifecycle live elsewhere.
type LearnerClaims struct {
	LearnerID string `json:"learner_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
