package domain

import "time"

// SampleRecordedEvent represents the payload for voice.sample.recorded messages.
type SampleRecordedEvent struct {
	EventID              string
	UserID               string
	SampleID             string
	QualityScore         float64
	SamplesCollected     int
	SamplesRemaining     int
	CompletionPercentage float64
	RecordedAt           time.Time
	Metadata             map[string]any
}

// RegistrationCompletedEvent represents the payload for voice.registration.completed messages.
type RegistrationCompletedEvent struct {
	EventID          string
	UserID           string
	SamplesCollected int
	Confidence       float64
	CompletedAt      time.Time
	Metadata         map[string]any
}

// AuthenticationDecidedEvent represents the payload for voice.authentication.decided messages.
type AuthenticationDecidedEvent struct {
	EventID            string
	UserID             string
	Outcome            string
	CombinedConfidence float64
	EmbeddingPassed    bool
	PassphrasePassed   bool
	HighConfidence     bool
	DecidedAt          time.Time
	Metadata           map[string]any
}

// UserRegisteredEvent represents the payload for voice.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}
