package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
)

// Binary index file layout, version 1, little-endian throughout:
//
//	header      signature "BOOLIDX\0", u32 version, u32 doc_count,
//	            u32 term_count, u32 posting_count, 4 reserved u32
//	documents   per doc: u32 id, u32 title_len + bytes, u32 url_len + bytes,
//	            u32 content_len, u32 doc_length
//	term table  per term: u32 term_len, u32 posting_count, u64 absolute
//	            offset of the term's data record
//	term data   per term: term bytes, u32 posting_count, then per posting
//	            u32 doc_id + u32 frequency
//
// Document content bytes and posting positions are not persisted. Decode
// rebuilds each posting with frequency placeholder-zero positions so the
// frequency/positions invariant holds; positional operators run against the
// placeholders and are only reliable on a freshly built index.
const (
	fileVersion   = 1
	headerSize    = 40
	termEntrySize = 16
)

var fileSignature = [8]byte{'B', 'O', 'O', 'L', 'I', 'D', 'X', 0}

// SaveToFile writes the index to path atomically: the bytes go to a temp
// file in the same directory, which is fsynced and renamed over the target.
func (ix *InvertedIndex) SaveToFile(path string) error {
	data, err := ix.encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming index into place: %w", err)
	}
	return nil
}

func (ix *InvertedIndex) encode() ([]byte, error) {
	terms := ix.AllTerms()

	var postingCount int
	for _, t := range terms {
		postingCount += len(ix.FindPostings(t))
	}

	var buf bytes.Buffer
	buf.Write(fileSignature[:])
	writeU32(&buf, fileVersion)
	writeU32(&buf, uint32(len(ix.documents)))
	writeU32(&buf, uint32(len(terms)))
	writeU32(&buf, uint32(postingCount))
	for i := 0; i < 4; i++ {
		writeU32(&buf, 0)
	}

	for i := range ix.documents {
		d := &ix.documents[i]
		writeU32(&buf, d.ID)
		writeU32(&buf, uint32(len(d.Title)))
		buf.WriteString(d.Title)
		writeU32(&buf, uint32(len(d.URL)))
		buf.WriteString(d.URL)
		writeU32(&buf, uint32(len(d.Content)))
		writeU32(&buf, uint32(d.Length))
	}

	// The data region starts right after the fixed-size term table, and
	// each table entry carries the absolute offset of its term's record.
	offset := uint64(buf.Len()) + uint64(len(terms))*termEntrySize
	for _, t := range terms {
		n := len(ix.FindPostings(t))
		writeU32(&buf, uint32(len(t)))
		writeU32(&buf, uint32(n))
		writeU64(&buf, offset)
		offset += uint64(len(t)) + 4 + uint64(n)*8
	}

	for _, t := range terms {
		postings := ix.FindPostings(t)
		buf.WriteString(t)
		writeU32(&buf, uint32(len(postings)))
		for i := range postings {
			writeU32(&buf, postings[i].DocID)
			writeU32(&buf, postings[i].Frequency)
		}
	}

	return buf.Bytes(), nil
}

// LoadFromFile reads a binary index written by SaveToFile. Posting lists come
// back with placeholder zero positions and documents with empty content.
func LoadFromFile(path string) (*InvertedIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	ix, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding index file %s: %w", path, err)
	}
	return ix, nil
}

func decode(data []byte) (*InvertedIndex, error) {
	r := &byteReader{data: data}

	sig, err := r.bytes(8)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, fileSignature[:]) {
		return nil, pkgerrors.ErrBadSignature
	}
	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	if version != fileVersion {
		return nil, fmt.Errorf("version %d: %w", version, pkgerrors.ErrUnsupportedVersion)
	}

	docCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	termCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	postingCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	if _, err := r.bytes(16); err != nil { // reserved
		return nil, err
	}

	ix := New()
	ix.documents = make([]Document, 0, docCount)
	for i := uint32(0); i < docCount; i++ {
		id, err := r.u32()
		if err != nil {
			return nil, err
		}
		title, err := r.lengthPrefixedString()
		if err != nil {
			return nil, err
		}
		url, err := r.lengthPrefixedString()
		if err != nil {
			return nil, err
		}
		if _, err := r.u32(); err != nil { // content length, content not stored
			return nil, err
		}
		length, err := r.u32()
		if err != nil {
			return nil, err
		}
		if id != i {
			return nil, fmt.Errorf("document %d stored with id %d", i, id)
		}
		ix.documents = append(ix.documents, Document{
			ID:     id,
			Title:  title,
			URL:    url,
			Length: int(length),
		})
		ix.urlToID.Insert(url, id)
	}

	type termEntry struct {
		termLen  uint32
		postings uint32
		offset   uint64
	}
	entries := make([]termEntry, termCount)
	for i := range entries {
		if entries[i].termLen, err = r.u32(); err != nil {
			return nil, err
		}
		if entries[i].postings, err = r.u32(); err != nil {
			return nil, err
		}
		if entries[i].offset, err = r.u64(); err != nil {
			return nil, err
		}
	}

	var loadedPostings uint32
	for i, e := range entries {
		if uint64(r.pos) != e.offset {
			return nil, fmt.Errorf("term %d: table offset %d does not match data position %d",
				i, e.offset, r.pos)
		}
		termBytes, err := r.bytes(int(e.termLen))
		if err != nil {
			return nil, err
		}
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		if n != e.postings {
			return nil, fmt.Errorf("term %q: table lists %d postings, data has %d",
				termBytes, e.postings, n)
		}
		postings := make([]Posting, 0, n)
		for j := uint32(0); j < n; j++ {
			docID, err := r.u32()
			if err != nil {
				return nil, err
			}
			freq, err := r.u32()
			if err != nil {
				return nil, err
			}
			if docID >= docCount {
				return nil, fmt.Errorf("term %q posting references unknown document %d",
					termBytes, docID)
			}
			postings = append(postings, Posting{
				DocID:     docID,
				Frequency: freq,
				Positions: make([]uint32, freq),
			})
		}
		ix.terms.Insert(string(termBytes), postings)
		loadedPostings += n
	}
	if loadedPostings != postingCount {
		return nil, fmt.Errorf("header lists %d postings, file has %d", postingCount, loadedPostings)
	}

	ix.recomputeStats()
	return ix, nil
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("truncated index file at offset %d", r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) lengthPrefixedString() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
