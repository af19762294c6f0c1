package domain

import "time"

// UserCredential is the read snapshot of a user's voice credential as
// persisted in the users and voice_embeddings tables. The decision
// engine consumes snapshots and returns persistence instructions; it
// never writes storage itself.
type UserCredential struct {
	UserID                  string
	Email                   string
	Name                    string
	PassphraseHash          string
	Embeddings              []VoiceEmbedding
	RegistrationComplete    bool
	RegistrationCompletedAt *time.Time
	CreatedAt               time.Time
}

// SampleCount returns the number of enrolled samples in the snapshot.
func (u UserCredential) SampleCount() int {
	return len(u.Embeddings)
}
