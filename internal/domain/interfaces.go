package domain

// Page is the raw text of one document page as handed over by an extractor.
// Number is 1-based.
type Page struct {
	Text   string
	Number int
}

// DocumentMeta carries provenance attached to every chunk of a document.
type DocumentMeta struct {
	Source string
	Author string
	Title  string
}

// Document represents a single extracted file ready for chunking.
type Document struct {
	Path  string
	Meta  DocumentMeta
	Pages []Page
}

// Chunk is a bounded unit of document text used for indexing.
// ChunkID is derived from source, page number and ordinal.
type Chunk struct {
	ChunkID    string `json:"chunk_id"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	Author     string `json:"author"`
	PageNumber int    `json:"page_number"`
	Section    string `json:"section"`
}

// RetrievedUnit is a chunk returned by similarity search with its score.
// Higher scores are better.
type RetrievedUnit struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Author     string  `json:"author"`
	PageNumber int     `json:"page_number"`
	Section    string  `json:"section"`
	Score      float64 `json:"score"`
}

// Source describes one retrieved unit in an answer.
type Source struct {
	Source         string  `json:"source"`
	Author         string  `json:"author"`
	Section        string  `json:"section"`
	Page           int     `json:"page"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer is the response of one question/answer cycle. It is always returned,
// even when generation fails; Err is set in that case.
type Answer struct {
	Question    string   `json:"question"`
	Text        string   `json:"answer"`
	Sources     []Source `json:"sources"`
	ContextUsed string   `json:"context_used"`
	Err         error    `json:"-"`
}

// Failed reports whether the generation step failed.
func (a Answer) Failed() bool { return a.Err != nil }
