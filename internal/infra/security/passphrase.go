package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// passphraseWords is the curated Spanish dictionary passphrases are
// drawn from. Every word is at least three letters so the verifier's
// token filter never drops a generated word.
var passphraseWords = []string{
	"agua", "aire", "arbol", "arena", "aurora", "barco", "bosque", "brisa",
	"calle", "campo", "canto", "casa", "cielo", "cobre", "colina", "coral",
	"cristal", "cumbre", "delfin", "duna", "estrella", "faro", "flor", "fuego",
	"fuente", "gato", "hoja", "huerto", "isla", "jardin", "lago", "luna",
	"llama", "madera", "mar", "marea", "miel", "monte", "nieve", "noche",
	"nube", "oasis", "ola", "oro", "perla", "piedra", "pino", "playa",
	"pradera", "puente", "rayo", "rio", "roble", "roca", "selva", "senda",
	"sol", "sombra", "tierra", "trigo", "valle", "viento", "volcan", "zorro",
}

// GeneratePassphrase draws n distinct dictionary words crypto-randomly
// without replacement. The words are returned in draw order; hashing
// canonicalizes order separately.
func GeneratePassphrase(n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("passphrase word count must be positive")
	}
	if n > len(passphraseWords) {
		return nil, fmt.Errorf("passphrase word count %d exceeds dictionary size %d", n, len(passphraseWords))
	}

	pool := make([]string, len(passphraseWords))
	copy(pool, passphraseWords)

	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
		if err != nil {
			return nil, fmt.Errorf("draw passphrase word: %w", err)
		}
		j := int(idx.Int64())
		words = append(words, pool[j])
		pool[j] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return words, nil
}
