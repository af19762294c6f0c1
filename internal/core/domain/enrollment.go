package domain

// QualityTrend describes how recent sample quality compares to earlier
// samples in the enrollment sequence.
type QualityTrend string

const (
	TrendImproving QualityTrend = "improving"
	TrendDeclining QualityTrend = "declining"
	TrendStable    QualityTrend = "stable"
	TrendNoData    QualityTrend = "no_data"
)

// UrgencyLevel positions the user inside the registration time window.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyModerate UrgencyLevel = "moderate"
	UrgencyUrgent   UrgencyLevel = "urgent"
	UrgencyExpired  UrgencyLevel = "expired"
)

// ProgressAnalysis is the read-only enrollment progress view served to
// status endpoints and consumed by the completion checker.
type ProgressAnalysis struct {
	SamplesCollected     int
	SamplesRemaining     int
	CompletionPercentage float64
	AverageQuality       float64
	QualityTrend         QualityTrend
	UrgencyLevel         UrgencyLevel
	ElapsedMinutes       float64
	RegistrationScore    float64
}

// BasicCheck reports the sample-count criterion.
type BasicCheck struct {
	Passed           bool
	SamplesCollected int
	SamplesRequired  int
	AlreadyComplete  bool
}

// QualityCheck reports the per-sample quality criterion, with bucket
// counts for reporting.
type QualityCheck struct {
	Passed            bool
	AcceptableCount   int
	RequiredCount     int
	AverageQuality    float64
	ExcellentSamples  int
	GoodSamples       int
	AcceptableSamples int
	PoorSamples       int
}

// ConsistencyCheck reports temporal and embedding-similarity coherence
// across the enrolled samples.
type ConsistencyCheck struct {
	Passed               bool
	ConsistencyScore     float64
	TemporalConsistent   bool
	SimilarityConsistent bool
	SimilarityComputed   bool
	Reason               string
}

// CompletionAnalysis is the completion checker's verdict for one
// snapshot, with per-check detail and user-facing recommendations.
type CompletionAnalysis struct {
	IsComplete       bool
	Confidence       float64
	BasicCheck       BasicCheck
	QualityCheck     QualityCheck
	ConsistencyCheck ConsistencyCheck
	DecisionReasons  []string
	Recommendations  []string
}
