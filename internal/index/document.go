// Package index implements the inverted index: document storage with URL
// deduplication, term-to-postings mapping over an open-addressing hash table,
// corpus statistics, and a binary on-disk codec.
package index

// Document is an indexed document. ID is assigned sequentially by the index
// and doubles as the bit position in query result sets. Length is the number
// of distinct terms the document was indexed under.
type Document struct {
	ID      uint32 `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Length  int    `json:"length"`
}

// Stats summarizes the state of the index. All values are recomputed after
// every mutation, so reads are always consistent with the current contents.
type Stats struct {
	DocumentCount    uint32  `json:"document_count"`
	TermCount        int     `json:"term_count"`
	TotalPostings    int     `json:"total_postings"`
	AvgDocLength     float64 `json:"avg_doc_length"`
	AvgTermFrequency float64 `json:"avg_term_frequency"`
	MostFrequentTerm string  `json:"most_frequent_term"`
	MaxTermFrequency uint64  `json:"max_term_frequency"`
}
