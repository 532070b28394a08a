package testgen

import "github.com/openagents/harness/internal/pubsub"

// Event types published over the generator's lifecycle broker.
const (
	EventTest       pubsub.EventType = "testgen_test"
	EventReflection pubsub.EventType = "testgen_reflection"
	EventComplete   pubsub.EventType = "testgen_complete"
	EventError      pubsub.EventType = "testgen_error"
)

// Payload is the union of everything a generator run can publish; callers
// switch on which optional field is set based on the Event's type.
type Payload struct {
	Test       *GeneratedTest
	Reflection *ReflectionInCategory
	Complete   *CompleteSummary
	Err        error
}

// ReflectionInCategory tags a Reflection with the category it was produced
// for, so subscribers don't need to track generator state themselves.
type ReflectionInCategory struct {
	Category Category
	Reflection
}

// CompleteSummary is the payload of the final testgen_complete event.
type CompleteSummary struct {
	TotalTests             int
	TotalRounds            int
	CategoryRounds         map[Category]int
	ComprehensivenessScore float64
	TotalTokensUsed        int
	DurationMs             int64
	Uncertainties          []string
}
