package port

import "context"

// Transcriber converts spoken audio to text. The language hint is a
// BCP-47 code such as "es"; implementations may ignore it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}
