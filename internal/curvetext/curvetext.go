// Package curvetext reads and writes automations in a compact one-line
// notation, one token per segment:
//
//	c4:60 l4:40 e2:40>80@50 q3:>20@95 ; comment
//
// c<len>:<value> holds a constant. l, e and q take [<start>>]<end>, and e and
// q add @<control>, the value at the segment midpoint. A missing start
// continues from the previous segment's end value.
package curvetext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbegin/automation-go"
)

// Parse reads text into an automation laid out from x = 0.
func Parse(text string) (*automation.Automation, error) {
	var segs []automation.Segment
	prev, havePrev := 0.0, false
	i := 0
	for i < len(text) {
		ch := text[i]
		if isSpace(ch) {
			i++
			continue
		}
		if ch == ';' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}
		seg, next, err := parseSegment(text, i, prev, havePrev)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		prev, havePrev = seg.Y2(), true
		i = next
	}
	return automation.New(segs...), nil
}

// parseSegment reads one token. Segments are built at x = 0 so their lengths
// survive exactly; automation.New lays them end to end.
func parseSegment(s string, at int, prev float64, havePrev bool) (automation.Segment, int, error) {
	kind := lower(s[at])
	switch kind {
	case 'c', 'l', 'e', 'q':
	default:
		return automation.Segment{}, at, fmt.Errorf("unknown segment kind %q at %d", s[at], at)
	}
	length, i, err := parseNumber(s, at+1)
	if err != nil {
		return automation.Segment{}, at, err
	}
	if i >= len(s) || s[i] != ':' {
		return automation.Segment{}, at, fmt.Errorf("expected ':' after length at %d", i)
	}
	i++

	if kind == 'c' {
		v, next, err := parseNumber(s, i)
		if err != nil {
			return automation.Segment{}, at, err
		}
		seg, err := automation.NewConstant(0, length, v)
		if err != nil {
			return automation.Segment{}, at, fmt.Errorf("segment at %d: %w", at, err)
		}
		return seg, next, checkEnd(s, next)
	}

	start, end, i, err := parseRamp(s, i, prev, havePrev)
	if err != nil {
		return automation.Segment{}, at, err
	}

	var seg automation.Segment
	if kind == 'l' {
		seg, err = automation.NewLinear(0, start, length, end)
	} else {
		if i >= len(s) || s[i] != '@' {
			return automation.Segment{}, at, fmt.Errorf("expected '@' control value at %d", i)
		}
		var ctrl float64
		ctrl, i, err = parseNumber(s, i+1)
		if err != nil {
			return automation.Segment{}, at, err
		}
		if kind == 'e' {
			seg, err = automation.NewExponential(0, start, length, end, ctrl)
		} else {
			seg, err = automation.NewQuadratic(0, start, length, end, ctrl)
		}
	}
	if err != nil {
		return automation.Segment{}, at, fmt.Errorf("segment at %d: %w", at, err)
	}
	return seg, i, checkEnd(s, i)
}

// parseRamp reads [<start>>]<end>. ":>end" and ":end" both continue from
// prev.
func parseRamp(s string, at int, prev float64, havePrev bool) (start, end float64, next int, err error) {
	i := at
	explicit := false
	if i < len(s) && s[i] == '>' {
		i++
	} else {
		var v float64
		if v, i, err = parseNumber(s, i); err != nil {
			return 0, 0, at, err
		}
		if i < len(s) && s[i] == '>' {
			start, explicit = v, true
			i++
		} else {
			end = v
			if !havePrev {
				return 0, 0, at, fmt.Errorf("missing start value at %d", at)
			}
			return prev, end, i, nil
		}
	}
	if !explicit {
		if !havePrev {
			return 0, 0, at, fmt.Errorf("missing start value at %d", at)
		}
		start = prev
	}
	if end, i, err = parseNumber(s, i); err != nil {
		return 0, 0, at, err
	}
	return start, end, i, nil
}

// parseNumber reads a Go float literal starting at at, stopping at a
// delimiter, and returns it with the index after it.
func parseNumber(s string, at int) (float64, int, error) {
	i := at
	for i < len(s) && !isDelimiter(s[i]) {
		i++
	}
	if i == at {
		return 0, at, fmt.Errorf("expected number at %d", at)
	}
	v, err := strconv.ParseFloat(s[at:i], 64)
	if err != nil {
		return 0, at, fmt.Errorf("invalid number %q at %d", s[at:i], at)
	}
	return v, i, nil
}

func checkEnd(s string, at int) error {
	if at < len(s) && !isSpace(s[at]) && s[at] != ';' {
		return fmt.Errorf("unexpected %q at %d", s[at], at)
	}
	return nil
}

// Format writes a in the notation Parse reads. Start values equal to the
// previous end are left implicit.
func Format(a *automation.Automation) string {
	var out strings.Builder
	prev, havePrev := 0.0, false
	for i, s := range a.Segments() {
		if i > 0 {
			out.WriteByte(' ')
		}
		switch s.Kind() {
		case automation.KindConstant:
			fmt.Fprintf(&out, "c%s:%s", num(s.Length()), num(s.Y1()))
		default:
			out.WriteByte(kindLetter(s.Kind()))
			out.WriteString(num(s.Length()))
			out.WriteByte(':')
			if !havePrev || prev != s.Y1() {
				out.WriteString(num(s.Y1()))
			}
			out.WriteByte('>')
			out.WriteString(num(s.Y2()))
			if s.Kind() != automation.KindLinear {
				out.WriteByte('@')
				out.WriteString(num(s.YC()))
			}
		}
		prev, havePrev = s.Y2(), true
	}
	return out.String()
}

func kindLetter(k automation.Kind) byte {
	switch k {
	case automation.KindLinear:
		return 'l'
	case automation.KindExponential:
		return 'e'
	case automation.KindQuadratic:
		return 'q'
	default:
		return 'c'
	}
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func isDelimiter(b byte) bool {
	return isSpace(b) || b == ':' || b == '>' || b == '@' || b == ';'
}

func isSpace(b byte) bool { return b == ' ' || b == '\n' || b == '\r' || b == '\t' }

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
