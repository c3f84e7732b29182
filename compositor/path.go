package compositor

import (
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

// tracePathData adds SVG-style path data to the context's current path.
// Supported commands: M/m, L/l, H/h, V/v, Q/q, C/c, Z/z. Unsupported
// commands and malformed numbers end the trace at that point; a partially
// drawn path beats an aborted composite.
func tracePathData(dc *gg.Context, data string) {
	p := pathScanner{src: data}
	var cx, cy float64   // current point
	var sx, sy float64   // subpath start
	started := false

	for {
		cmd, ok := p.command()
		if !ok {
			return
		}
		rel := cmd >= 'a' && cmd <= 'z'
		for {
			switch cmd {
			case 'M', 'm':
				x, y, ok := p.pair()
				if !ok {
					return
				}
				if rel {
					x, y = cx+x, cy+y
				}
				dc.NewSubPath()
				dc.MoveTo(x, y)
				cx, cy = x, y
				sx, sy = x, y
				started = true
				// Subsequent pairs after a moveto are implicit linetos.
				if rel {
					cmd = 'l'
				} else {
					cmd = 'L'
				}
			case 'L', 'l':
				x, y, ok := p.pair()
				if !ok {
					return
				}
				if rel {
					x, y = cx+x, cy+y
				}
				dc.LineTo(x, y)
				cx, cy = x, y
			case 'H', 'h':
				x, ok := p.number()
				if !ok {
					return
				}
				if rel {
					x = cx + x
				}
				dc.LineTo(x, cy)
				cx = x
			case 'V', 'v':
				y, ok := p.number()
				if !ok {
					return
				}
				if rel {
					y = cy + y
				}
				dc.LineTo(cx, y)
				cy = y
			case 'Q', 'q':
				x1, y1, ok := p.pair()
				if !ok {
					return
				}
				x, y, ok := p.pair()
				if !ok {
					return
				}
				if rel {
					x1, y1 = cx+x1, cy+y1
					x, y = cx+x, cy+y
				}
				dc.QuadraticTo(x1, y1, x, y)
				cx, cy = x, y
			case 'C', 'c':
				x1, y1, ok := p.pair()
				if !ok {
					return
				}
				x2, y2, ok := p.pair()
				if !ok {
					return
				}
				x, y, ok := p.pair()
				if !ok {
					return
				}
				if rel {
					x1, y1 = cx+x1, cy+y1
					x2, y2 = cx+x2, cy+y2
					x, y = cx+x, cy+y
				}
				dc.CubicTo(x1, y1, x2, y2, x, y)
				cx, cy = x, y
			case 'Z', 'z':
				if started {
					dc.ClosePath()
					cx, cy = sx, sy
				}
			default:
				return
			}
			if cmd == 'Z' || cmd == 'z' || !p.moreArgs() {
				break
			}
		}
	}
}

type pathScanner struct {
	src string
	pos int
}

func (p *pathScanner) skipSeparators() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		break
	}
}

func (p *pathScanner) command() (byte, bool) {
	p.skipSeparators()
	if p.pos >= len(p.src) {
		return 0, false
	}
	c := p.src[p.pos]
	if !strings.ContainsRune("MmLlHhVvQqCcZz", rune(c)) {
		return 0, false
	}
	p.pos++
	return c, true
}

// moreArgs reports whether the next token is a number, meaning the current
// command repeats.
func (p *pathScanner) moreArgs() bool {
	p.skipSeparators()
	if p.pos >= len(p.src) {
		return false
	}
	c := p.src[p.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (p *pathScanner) number() (float64, bool) {
	p.skipSeparators()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	seenDot := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, false
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p *pathScanner) pair() (float64, float64, bool) {
	x, ok := p.number()
	if !ok {
		return 0, 0, false
	}
	y, ok := p.number()
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}
