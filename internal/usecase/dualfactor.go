package usecase

import (
	"errors"
	"fmt"
	"sync"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

// DualFactorCombiner runs the embedding and passphrase factors and
// merges their verdicts into a single decision. Both factors always run
// and are always reported; the combiner never short-circuits, so a
// caller can tell which factor failed.
type DualFactorCombiner struct {
	embeddings *EmbeddingAuthenticator
	passphrase *PassphraseVerifier
}

// NewDualFactorCombiner constructs a combiner over the two factors.
func NewDualFactorCombiner(embeddings *EmbeddingAuthenticator, passphrase *PassphraseVerifier) *DualFactorCombiner {
	return &DualFactorCombiner{embeddings: embeddings, passphrase: passphrase}
}

type embeddingFactor struct {
	passed   bool
	conf     float64
	highConf bool
	err      error
}

type passphraseFactor struct {
	passed bool
	conf   float64
	err    error
}

// Authenticate evaluates both factors for one attempt. The two checks
// have no data dependency and run concurrently. An empty transcript and
// a hash mismatch are valid negative outcomes; only malformed input
// surfaces as an error. A user with no enrolled embeddings yields the
// insufficient_data outcome rather than a rejection; the passphrase
// factor still runs so both factors are always reported.
func (c *DualFactorCombiner) Authenticate(user domain.UserCredential, inputEmbedding []float64, transcript string) (domain.AuthenticationDecision, error) {
	insufficient := len(user.Embeddings) == 0

	var (
		wg   sync.WaitGroup
		emb  embeddingFactor
		pass passphraseFactor
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if insufficient {
			return
		}
		cmp, err := c.embeddings.Compare(inputEmbedding, user.Embeddings)
		if err != nil {
			emb.err = err
			return
		}
		emb.passed, emb.conf, emb.highConf = c.embeddings.Decide(cmp)
	}()
	go func() {
		defer wg.Done()
		result, err := c.passphrase.Verify(transcript, user.PassphraseHash)
		if err != nil {
			if errors.Is(err, ErrEmptyTranscript) {
				return
			}
			pass.err = err
			return
		}
		pass.passed = result.Passed
		pass.conf = result.Confidence
	}()
	wg.Wait()

	if emb.err != nil {
		return domain.AuthenticationDecision{}, fmt.Errorf("embedding factor: %w", emb.err)
	}
	if pass.err != nil {
		return domain.AuthenticationDecision{}, fmt.Errorf("passphrase factor: %w", pass.err)
	}

	decision := domain.AuthenticationDecision{
		EmbeddingPassed:      emb.passed,
		EmbeddingConfidence:  emb.conf,
		EmbeddingHighConf:    emb.highConf,
		PassphrasePassed:     pass.passed,
		PassphraseConfidence: pass.conf,
		CombinedConfidence:   (emb.conf + pass.conf) / 2.0,
		Outcome:              outcomeFor(emb.passed, pass.passed),
	}
	if insufficient {
		decision.Outcome = domain.OutcomeInsufficientData
	}
	return decision, nil
}

func outcomeFor(embeddingPassed, passphrasePassed bool) domain.AuthenticationOutcome {
	switch {
	case embeddingPassed && passphrasePassed:
		return domain.OutcomeAuthenticated
	case embeddingPassed:
		return domain.OutcomeRejectedPassword
	case passphrasePassed:
		return domain.OutcomeRejectedVoice
	default:
		return domain.OutcomeRejectedBoth
	}
}
