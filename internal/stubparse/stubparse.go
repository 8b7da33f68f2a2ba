// Package stubparse provides a deterministic, dependency-free Parser
// for demos and tests. Rather than a real language-aware parser, it
// splits source text into blank-line-delimited blocks the same way the
// teacher's own split function divides a long sequence into fragments
// of bounded size: walk forward accumulating lines up to a goal size,
// cut at the nearest blank line at or before a hard maximum.
package stubparse

import (
	"context"
	"strings"

	"github.com/fragmenthash/lshindex/clone"
	"github.com/fragmenthash/lshindex/fragment"
)

// Parser splits source into fragments of at most MaxLines lines,
// preferring to break at a blank line once GoalLines has been reached.
type Parser struct {
	GoalLines int
	MaxLines  int
}

// New returns a Parser with the given goal/max line counts. goal must
// be <= max.
func New(goal, max int) *Parser {
	return &Parser{GoalLines: goal, MaxLines: max}
}

// Parse implements clone.Parser.
func (p *Parser) Parse(_ context.Context, path, language, source string) ([]clone.ParseResult, error) {
	lines := strings.Split(source, "\n")
	var out []clone.ParseResult

	start := 0
	for start < len(lines) {
		end := start
		for end < len(lines) && end-start < p.GoalLines {
			end++
		}
		// Extend to the next blank line, up to MaxLines, so a fragment
		// doesn't cut through the middle of a block unnecessarily.
		for end < len(lines) && end-start < p.MaxLines && strings.TrimSpace(lines[end]) != "" {
			end++
		}
		if end > len(lines) {
			end = len(lines)
		}
		block := lines[start:end]
		text := strings.Join(block, "\n")
		if strings.TrimSpace(text) != "" {
			out = append(out, clone.ParseResult{
				Locator: fragment.Locator{
					Path:      path,
					StartLine: start + 1,
					EndLine:   end,
					StartCol:  0,
					EndCol:    0,
				},
				Kind:           "block",
				NormalizedText: normalize(text),
			})
		}
		if end == start {
			end++ // guarantee forward progress on a pathological empty block
		}
		start = end
	}
	return out, nil
}

// normalize collapses internal whitespace so Type-1 content-hash
// comparisons are robust to indentation differences, matching the
// spec's description of normalized text as not necessarily raw source.
func normalize(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
