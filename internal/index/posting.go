package index

// Posting records the occurrences of one term in one document. Frequency
// always equals len(Positions); an index reloaded from disk carries
// placeholder zero positions because the binary format does not persist them.
type Posting struct {
	DocID     uint32
	Frequency uint32
	Positions []uint32
}

// TotalFrequency sums the frequencies of a posting list.
func TotalFrequency(postings []Posting) uint64 {
	var total uint64
	for i := range postings {
		total += uint64(postings[i].Frequency)
	}
	return total
}
