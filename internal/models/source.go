package models

// SourceRecord is one search hit. Its 1-based position in the retrieved
// list is the N used by "[Fonte N]" citations.
type SourceRecord struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}
