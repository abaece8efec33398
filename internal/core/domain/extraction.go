package domain

// Entity is one biomedical entity extracted from a text by the LLM.
type Entity struct {
	// Entity is the mention as it appears in the text.
	Entity string `json:"entity"`

	// Confidence is the model's self-reported score, "1" to "5".
	Confidence string `json:"confidence"`

	// Category is one of the controlled entity categories
	// (Gene, Protein, Compound, Disease, ...).
	Category string `json:"category"`

	// Metadata carries caller-supplied key-value pairs (source, pmid, ...)
	// merged into every extracted entity.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Relation is one extracted relationship between two entities.
type Relation struct {
	SourceName   string `json:"source_name"`
	SourceType   string `json:"source_type"`
	TargetName   string `json:"target_name"`
	TargetType   string `json:"target_type"`
	RelationType string `json:"relation_type"`

	// KeySentence is the model's one-or-two sentence justification.
	KeySentence string `json:"key_sentence"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Classification is the result of classifying one title+abstract record.
// When the model response cannot be parsed the Category is "Unknown" and
// Error preserves the raw response for diagnosis; the batch continues.
type Classification struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ExtractionResult is the envelope written for one extraction call. Failed
// LLM responses are recorded rather than raised so a batch run can continue
// with the next item.
type ExtractionResult struct {
	// RunID identifies the extraction run that produced this result.
	RunID string `json:"run_id"`

	// Model is the LLM used.
	Model string `json:"model"`

	// Entities or Relations hold the parsed payload, one of the two.
	Entities  []Entity   `json:"entities,omitempty"`
	Relations []Relation `json:"relations,omitempty"`

	// Response is the raw model output, kept when parsing failed.
	Response string `json:"response,omitempty"`

	// Error flags a failed parse. The raw response above is the evidence.
	Error bool `json:"error,omitempty"`
}
