// Package wirefmt defines the on-disk record shapes for a persisted
// index and encodes/decodes them as snappy-compressed JSON, the same
// two-layer wire format the teacher's genomics tools use for their own
// intermediate record streams.
package wirefmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/snappy"

	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/hyperplane"
)

// CurrentVersion is written into every MetadataRecord produced by this
// package. Load refuses to read a record carrying a version it does not
// recognize.
const CurrentVersion = 1

// FragmentPayload is the wire shape of a fragment.Fragment: field names
// chosen for the JSON wire format rather than Go convention, stable
// across versions independent of the in-memory struct's layout.
type FragmentPayload struct {
	ID              string `json:"id"`
	Path            string `json:"path"`
	StartLine       int    `json:"start_line"`
	EndLine         int    `json:"end_line"`
	StartCol        int    `json:"start_col"`
	EndCol          int    `json:"end_col"`
	Language        string `json:"language"`
	Kind            string `json:"kind"`
	NormalizedText  string `json:"normalized_text"`
	IndexedAtUnixNs int64  `json:"indexed_at_unix_ns"`
}

// FragmentToPayload converts a fragment.Fragment to its wire shape.
func FragmentToPayload(f fragment.Fragment) FragmentPayload {
	return FragmentPayload{
		ID:              string(f.ID),
		Path:            f.Locator.Path,
		StartLine:       f.Locator.StartLine,
		EndLine:         f.Locator.EndLine,
		StartCol:        f.Locator.StartCol,
		EndCol:          f.Locator.EndCol,
		Language:        f.Language,
		Kind:            f.Kind,
		NormalizedText:  f.NormalizedText,
		IndexedAtUnixNs: f.IndexedAt.UnixNano(),
	}
}

// PayloadToFragment converts a wire payload back to a fragment.Fragment.
func PayloadToFragment(p FragmentPayload) fragment.Fragment {
	return fragment.Fragment{
		ID: fragment.ID(p.ID),
		Locator: fragment.Locator{
			Path:      p.Path,
			StartLine: p.StartLine,
			EndLine:   p.EndLine,
			StartCol:  p.StartCol,
			EndCol:    p.EndCol,
		},
		Language:       p.Language,
		Kind:           p.Kind,
		NormalizedText: p.NormalizedText,
		IndexedAt:      time.Unix(0, p.IndexedAtUnixNs).UTC(),
	}
}

// CodeEntry pairs a table index with the code a fragment received in
// that table.
type CodeEntry struct {
	Table int    `json:"table"`
	Code  uint64 `json:"code,string"`
}

// MetadataEntry is one fragment's full persisted record: its payload,
// its embedding, and every table/code pair it was inserted under.
type MetadataEntry struct {
	Fragment FragmentPayload `json:"fragment"`
	Vector   []float32       `json:"vector"`
	Codes    []CodeEntry     `json:"codes"`
}

// MetadataRecord is the top-level persisted document for a fragment's
// metadata: config identity plus one entry per fragment. Hyperplane
// families themselves are never persisted; Load reconstructs them from
// Config.Seed and Config.NumTables/NumBits/Dimension/UseOrthogonalHyperplanes.
type MetadataRecord struct {
	Version   int             `json:"version"`
	NumTables int             `json:"num_tables"`
	NumBits   int             `json:"num_bits"`
	Dimension int             `json:"dimension"`
	Entries   []MetadataEntry `json:"entries"`
}

// BucketEntry is one fragment stored in one bucket, as persisted
// alongside its overflow position.
type BucketEntry struct {
	FragmentID string `json:"fragment_id"`
	Overflow   bool   `json:"overflow"`
}

// BucketRecord is one code's full bucket contents.
type BucketRecord struct {
	Code    uint64        `json:"code"`
	Entries []BucketEntry `json:"entries"`
}

// TableRecord is one table's full bucket population, independent of
// fragment metadata (which lives once in MetadataRecord, not per
// table).
type TableRecord struct {
	Version int            `json:"version"`
	Buckets []BucketRecord `json:"buckets"`
}

// Encode snappy-compresses the JSON encoding of v.
func Encode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wirefmt: marshal: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// Decode reverses Encode into v (a pointer).
func Decode(blob []byte, v interface{}) error {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return fmt.Errorf("wirefmt: snappy decode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("wirefmt: unmarshal: %w", err)
	}
	return nil
}

// FormatCode renders a hyperplane.Code for use as a human-readable map
// key (table records keyed by code, for JSON object output).
func FormatCode(c hyperplane.Code) string {
	return strconv.FormatUint(uint64(c), 10)
}

// ParseCode parses a code previously rendered by FormatCode.
func ParseCode(s string) (hyperplane.Code, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("wirefmt: parse code %q: %w", s, err)
	}
	return hyperplane.Code(v), nil
}
