package domain

// AuthenticationOutcome enumerates the terminal states of a dual-factor
// authentication attempt. Rejection is a value, never an error.
type AuthenticationOutcome string

const (
	OutcomeAuthenticated    AuthenticationOutcome = "authenticated"
	OutcomeRejectedPassword AuthenticationOutcome = "rejected_password"
	OutcomeRejectedVoice    AuthenticationOutcome = "rejected_voice"
	OutcomeRejectedBoth     AuthenticationOutcome = "rejected_both"
	OutcomeInsufficientData AuthenticationOutcome = "insufficient_data"
)

// AuthenticationDecision merges both factors of one attempt.
// Outcome is authenticated iff both factors passed.
type AuthenticationDecision struct {
	EmbeddingPassed      bool
	EmbeddingConfidence  float64
	EmbeddingHighConf    bool
	PassphrasePassed     bool
	PassphraseConfidence float64
	CombinedConfidence   float64
	Outcome              AuthenticationOutcome
}

// Authenticated reports whether the attempt was accepted.
func (d AuthenticationDecision) Authenticated() bool {
	return d.Outcome == OutcomeAuthenticated
}
