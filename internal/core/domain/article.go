package domain

// Article is the structured form of a publication extracted from a PDF by
// the grobid service.
type Article struct {
	// PMID is the document id, derived from the PDF filename.
	PMID string `json:"pmid,omitempty"`

	// Title is the publication title from the TEI header.
	Title string `json:"title"`

	// Abstract is the abstract text, empty if grobid found none.
	Abstract string `json:"abstract,omitempty"`

	// Sections are the body divisions in document order.
	Sections []Section `json:"sections"`
}

// Section is one body division of an article.
type Section struct {
	// Heading is the section head, empty for unheaded divisions.
	Heading string `json:"heading"`

	// Text is the concatenated paragraph text of the section.
	Text string `json:"text"`
}
