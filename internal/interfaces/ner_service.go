package interfaces

const (
	// SpanTypeOrg tags a span recognized as an organization mention.
	SpanTypeOrg = "org"
	// SpanTypePerson tags a span recognized as a person mention.
	SpanTypePerson = "person"
)

// Span is a tagged region of text produced by entity recognition.
type Span struct {
	Text string
	Type string
}

// NERService extracts tagged entity spans from free text. The pipeline
// treats recognition as an opaque, swappable capability; the default
// implementation is a dictionary gazetteer.
type NERService interface {
	ExtractSpans(text string) []Span
}
