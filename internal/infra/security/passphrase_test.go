package security

import (
	"testing"
	"unicode/utf8"
)

func TestGeneratePassphraseDrawsDistinctWords(t *testing.T) {
	words, err := GeneratePassphrase(3)
	if err != nil {
		t.Fatalf("GeneratePassphrase returned error: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}

	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if seen[w] {
			t.Fatalf("word %q drawn twice", w)
		}
		seen[w] = true
		if utf8.RuneCountInString(w) < 3 {
			t.Fatalf("word %q is shorter than the verifier's token filter allows", w)
		}
	}
}

func TestGeneratePassphraseFullDictionary(t *testing.T) {
	words, err := GeneratePassphrase(len(passphraseWords))
	if err != nil {
		t.Fatalf("GeneratePassphrase returned error: %v", err)
	}

	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if seen[w] {
			t.Fatalf("word %q drawn twice when exhausting the dictionary", w)
		}
		seen[w] = true
	}
	if len(seen) != len(passphraseWords) {
		t.Fatalf("expected %d distinct words, got %d", len(passphraseWords), len(seen))
	}
}

func TestGeneratePassphraseRejectsInvalidCounts(t *testing.T) {
	if _, err := GeneratePassphrase(0); err == nil {
		t.Fatal("expected error for zero word count")
	}
	if _, err := GeneratePassphrase(len(passphraseWords) + 1); err == nil {
		t.Fatal("expected error for count exceeding dictionary size")
	}
}
