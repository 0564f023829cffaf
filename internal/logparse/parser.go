package logparse

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ironsheep/detection-log-viz/internal/geom"
)

const (
	headerFence   = "==="
	headerKeyword = "Testing:"
	detKeyword    = "Det"
	boxKeyword    = "Box:"
)

// parseState is the parser's current-image context. The zero value means no
// header has been seen yet.
type parseState struct {
	image  string
	active bool
}

// step consumes one trimmed line and returns the next state.
func (st parseState) step(r *Result, line string) parseState {
	if name, ok := parseHeader(line); ok {
		r.reset(name)
		return parseState{image: name, active: true}
	}
	if !st.active {
		return st
	}
	if d, ok := parseDetection(line); ok {
		r.add(st.image, d)
	}
	return st
}

// Parse extracts every image section and its detections from logText.
//
// Parse is a pure function of its input and never returns an error; see the
// package documentation for the accepted grammar.
func Parse(logText string) *Result {
	r := newResult()
	var st parseState
	for _, line := range strings.Split(logText, "\n") {
		st = st.step(r, strings.TrimSpace(line))
	}
	return r
}

// ParseReader reads the whole log from rd and parses it.
func ParseReader(rd io.Reader) (*Result, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return Parse(string(data)), nil
}

// parseHeader matches "=== Testing: <name> ===" anywhere in line.
func parseHeader(line string) (string, bool) {
	for off := 0; ; {
		idx := strings.Index(line[off:], headerFence)
		if idx < 0 {
			return "", false
		}
		c := cursor{s: line, i: off + idx + len(headerFence)}
		c.skipSpace()
		if c.literal(headerKeyword) {
			rest := c.rest()
			if end := strings.LastIndex(rest, headerFence); end >= 0 {
				if name := strings.TrimSpace(rest[:end]); name != "" {
					return name, true
				}
			}
		}
		off += idx + len(headerFence)
	}
}

// parseDetection matches a detection line starting at any "Det" in line.
func parseDetection(line string) (Detection, bool) {
	for off := 0; ; {
		idx := strings.Index(line[off:], detKeyword)
		if idx < 0 {
			return Detection{}, false
		}
		c := cursor{s: line, i: off + idx}
		if d, ok := c.detection(); ok {
			return d, true
		}
		off += idx + len(detKeyword)
	}
}

// cursor is a position in a single line. Every match method either advances
// past what it matched and returns true, or returns false; callers abandon
// the cursor on the first failure.
type cursor struct {
	s string
	i int
}

func (c *cursor) rest() string {
	return c.s[c.i:]
}

func (c *cursor) skipSpace() {
	for c.i < len(c.s) && (c.s[c.i] == ' ' || c.s[c.i] == '\t') {
		c.i++
	}
}

func (c *cursor) literal(lit string) bool {
	if !strings.HasPrefix(c.rest(), lit) {
		return false
	}
	c.i += len(lit)
	return true
}

// token skips leading space and then matches lit.
func (c *cursor) token(lit string) bool {
	c.skipSpace()
	return c.literal(lit)
}

func (c *cursor) digits() bool {
	start := c.i
	for c.i < len(c.s) && isDigit(c.s[c.i]) {
		c.i++
	}
	return c.i > start
}

// number matches a decimal made of digits and dots, optionally preceded by
// a sign when signed is true.
func (c *cursor) number(signed bool) (float64, bool) {
	c.skipSpace()
	start := c.i
	if signed && c.i < len(c.s) && (c.s[c.i] == '-' || c.s[c.i] == '+') {
		c.i++
	}
	body := c.i
	for c.i < len(c.s) && (isDigit(c.s[c.i]) || c.s[c.i] == '.') {
		c.i++
	}
	if c.i == body {
		return 0, false
	}
	v, err := strconv.ParseFloat(c.s[start:c.i], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// until returns the text up to (not including) the first b and leaves the
// cursor on b.
func (c *cursor) until(b byte) (string, bool) {
	idx := strings.IndexByte(c.rest(), b)
	if idx < 0 {
		return "", false
	}
	text := c.s[c.i : c.i+idx]
	c.i += idx
	return text, true
}

// detection matches "Det <n>: <class> (<score>%) | Box: [x1, y1, x2, y2]".
func (c *cursor) detection() (Detection, bool) {
	if !c.literal(detKeyword) {
		return Detection{}, false
	}
	c.skipSpace()
	if !c.digits() || !c.token(":") {
		return Detection{}, false
	}

	class, ok := c.until('(')
	class = strings.TrimSpace(class)
	if !ok || class == "" || !c.literal("(") {
		return Detection{}, false
	}

	score, ok := c.number(false)
	if !ok || !c.token("%") || !c.token(")") {
		return Detection{}, false
	}

	if !c.token("|") || !c.token(boxKeyword) || !c.token("[") {
		return Detection{}, false
	}
	var coords [4]float64
	for k := range coords {
		v, ok := c.number(true)
		if !ok {
			return Detection{}, false
		}
		coords[k] = v
		if k < len(coords)-1 && !c.token(",") {
			return Detection{}, false
		}
	}
	if !c.token("]") {
		return Detection{}, false
	}

	return Detection{
		ClassName: class,
		Score:     score,
		Box:       geom.BoxFromArray(coords),
	}, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
