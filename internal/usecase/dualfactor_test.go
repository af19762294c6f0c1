package usecase

import (
	"errors"
	"math"
	"testing"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

func newTestCombiner(t *testing.T) *DualFactorCombiner {
	t.Helper()
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())
	verifier := newTestVerifier(t)
	return NewDualFactorCombiner(auth, verifier)
}

func enrolledUser(t *testing.T, vectors ...[]float64) domain.UserCredential {
	t.Helper()
	user := domain.UserCredential{
		UserID:         "user-1",
		PassphraseHash: sha256Hex("gato-luna-sol"),
	}
	for _, v := range vectors {
		user.Embeddings = append(user.Embeddings, domain.VoiceEmbedding{Vector: v, QualityScore: 0.9})
	}
	return user
}

func TestAuthenticateBothPass(t *testing.T) {
	combiner := newTestCombiner(t)
	user := enrolledUser(t, []float64{1, 0}, []float64{1, 0})

	decision, err := combiner.Authenticate(user, []float64{1, 0}, "sol luna gato")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if decision.Outcome != domain.OutcomeAuthenticated {
		t.Fatalf("expected authenticated, got %s", decision.Outcome)
	}
	if !decision.EmbeddingPassed || !decision.PassphrasePassed {
		t.Fatalf("expected both factors passed: %+v", decision)
	}
	if math.Abs(decision.CombinedConfidence-1.0) > 1e-9 {
		t.Fatalf("expected combined confidence 1.0, got %v", decision.CombinedConfidence)
	}
}

func TestAuthenticateRejectedPassword(t *testing.T) {
	combiner := newTestCombiner(t)
	user := enrolledUser(t, []float64{1, 0})

	decision, err := combiner.Authenticate(user, []float64{1, 0}, "perro casa arbol")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if decision.Outcome != domain.OutcomeRejectedPassword {
		t.Fatalf("expected rejected_password, got %s", decision.Outcome)
	}
	if !decision.EmbeddingPassed {
		t.Fatalf("expected embedding factor to pass: %+v", decision)
	}
	if decision.PassphrasePassed {
		t.Fatalf("expected passphrase factor to fail: %+v", decision)
	}
}

func TestAuthenticateRejectedVoice(t *testing.T) {
	combiner := newTestCombiner(t)
	user := enrolledUser(t, []float64{1, 0})

	decision, err := combiner.Authenticate(user, []float64{0, 1}, "gato luna sol")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if decision.Outcome != domain.OutcomeRejectedVoice {
		t.Fatalf("expected rejected_voice, got %s", decision.Outcome)
	}
	// mean of passphrase 1.0 and embedding 0.0
	if math.Abs(decision.CombinedConfidence-0.5) > 1e-9 {
		t.Fatalf("expected combined confidence 0.5, got %v", decision.CombinedConfidence)
	}
}

func TestAuthenticateRejectedBoth(t *testing.T) {
	combiner := newTestCombiner(t)
	user := enrolledUser(t, []float64{1, 0})

	decision, err := combiner.Authenticate(user, []float64{0, 1}, "perro casa arbol")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if decision.Outcome != domain.OutcomeRejectedBoth {
		t.Fatalf("expected rejected_both, got %s", decision.Outcome)
	}
}

func TestAuthenticateNoEnrolledEmbeddings(t *testing.T) {
	combiner := newTestCombiner(t)
	user := domain.UserCredential{UserID: "user-1", PassphraseHash: sha256Hex("gato-luna-sol")}

	decision, err := combiner.Authenticate(user, []float64{1, 0}, "gato luna sol")
	if err != nil {
		t.Fatalf("insufficient data is a value, not an error: %v", err)
	}
	if decision.Outcome != domain.OutcomeInsufficientData {
		t.Fatalf("expected insufficient_data, got %s", decision.Outcome)
	}
	if decision.EmbeddingPassed || decision.EmbeddingConfidence != 0 {
		t.Fatalf("embedding factor must report zero with nothing enrolled: %+v", decision)
	}
	if !decision.PassphrasePassed || decision.PassphraseConfidence != 1 {
		t.Fatalf("passphrase factor must still run and be reported: %+v", decision)
	}
	if math.Abs(decision.CombinedConfidence-0.5) > 1e-9 {
		t.Fatalf("expected combined confidence 0.5, got %v", decision.CombinedConfidence)
	}
}

func TestAuthenticateEmptyTranscriptIsNegativeOutcome(t *testing.T) {
	combiner := newTestCombiner(t)
	user := enrolledUser(t, []float64{1, 0})

	decision, err := combiner.Authenticate(user, []float64{1, 0}, "!!!")
	if err != nil {
		t.Fatalf("empty transcript is a valid negative, not an error: %v", err)
	}
	if decision.PassphrasePassed || decision.PassphraseConfidence != 0 {
		t.Fatalf("expected failed passphrase factor with zero confidence: %+v", decision)
	}
	if decision.Outcome != domain.OutcomeRejectedPassword {
		t.Fatalf("expected rejected_password, got %s", decision.Outcome)
	}
}

func TestAuthenticateSurfacesFatalErrors(t *testing.T) {
	combiner := newTestCombiner(t)
	user := enrolledUser(t, []float64{1, 0})

	if _, err := combiner.Authenticate(user, nil, "gato luna sol"); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := combiner.Authenticate(user, []float64{1, 0, 0}, "gato luna sol"); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
