package usecase

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// wordPattern matches runs of unicode letters, covering accented
// characters in any locale.
var wordPattern = regexp.MustCompile(`\p{L}+`)

const minWordRunes = 3

// PassphraseConfig parameterizes the passphrase factor.
type PassphraseConfig struct {
	ExpectedWordCount int
}

// DefaultPassphraseConfig returns the production defaults.
func DefaultPassphraseConfig() PassphraseConfig {
	return PassphraseConfig{ExpectedWordCount: 3}
}

// Validate rejects word counts that make partial credit meaningless.
func (c PassphraseConfig) Validate() error {
	if c.ExpectedWordCount < 1 {
		return fmt.Errorf("%w: expected word count must be >= 1", ErrInvalidConfig)
	}
	return nil
}

// PassphraseVerification is the verdict of one transcript check. The
// reconstructed phrase never leaves the engine in logs or errors.
type PassphraseVerification struct {
	Passed        bool
	Confidence    float64
	Reconstructed string
	WordCount     int
}

// PassphraseVerifier checks a transcribed utterance against a stored
// word-set digest. Sorting the words before hashing makes the check
// order-independent while keeping it an exact hash comparison.
type PassphraseVerifier struct {
	cfg PassphraseConfig
}

// NewPassphraseVerifier constructs a passphrase verifier.
func NewPassphraseVerifier(cfg PassphraseConfig) (*PassphraseVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PassphraseVerifier{cfg: cfg}, nil
}

// NormalizeWords lowercases the text, extracts letter-only tokens, drops
// tokens shorter than three runes, and returns them sorted.
func NormalizeWords(text string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	words := tokens[:0:0]
	for _, tok := range tokens {
		if len([]rune(tok)) >= minWordRunes {
			words = append(words, tok)
		}
	}
	sort.Strings(words)
	return words
}

// HashWords joins the normalized words with '-' and returns the SHA-256
// hex digest. This is the canonical stored-credential form.
func HashWords(words []string) string {
	sum := sha256.Sum256([]byte(strings.Join(words, "-")))
	return hex.EncodeToString(sum[:])
}

// Verify checks the transcript against the stored digest. A transcript
// with zero usable words is a valid negative outcome carrying
// ErrEmptyTranscript, not a fault. A failed match earns partial credit
// for plausible passphrase length only.
func (v *PassphraseVerifier) Verify(transcript, storedHash string) (PassphraseVerification, error) {
	words := NormalizeWords(transcript)
	if len(words) == 0 {
		return PassphraseVerification{}, fmt.Errorf("verify passphrase: %w", ErrEmptyTranscript)
	}

	reconstructed := strings.Join(words, "-")
	digest := HashWords(words)

	result := PassphraseVerification{
		Reconstructed: reconstructed,
		WordCount:     len(words),
	}

	if subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1 {
		result.Passed = true
		result.Confidence = 1.0
		return result, nil
	}

	ratio := float64(len(words)) / float64(v.cfg.ExpectedWordCount)
	if ratio > 1 {
		ratio = 1
	}
	result.Confidence = ratio * 0.5
	return result, nil
}
