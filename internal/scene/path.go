package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

// Segment is one absolute path command. Pts holds the control points
// followed by the end point: 1 for M/L, 2 for Q, 3 for C, 0 for Z.
type Segment struct {
	Op  byte
	Pts []gg.Point
}

// ParsePath reads SVG path data (M L H V Q T C S Z, absolute and relative)
// into absolute M/L/Q/C/Z segments.
func ParsePath(d string) ([]Segment, error) {
	toks, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}
	var (
		segs       []Segment
		cur, start gg.Point
		lastCtrl   gg.Point
		lastOp     byte
		i          int
		op         byte
	)
	num := func() (float64, error) {
		if i >= len(toks) || toks[i].op != 0 {
			return 0, fmt.Errorf("path: expected number after %q", string(op))
		}
		v := toks[i].num
		i++
		return v, nil
	}
	pt := func(rel bool) (gg.Point, error) {
		x, err := num()
		if err != nil {
			return gg.Point{}, err
		}
		y, err := num()
		if err != nil {
			return gg.Point{}, err
		}
		if rel {
			return gg.Pt(cur.X+x, cur.Y+y), nil
		}
		return gg.Pt(x, y), nil
	}
	for i < len(toks) {
		if toks[i].op != 0 {
			op = toks[i].op
			i++
		} else if op == 0 {
			return nil, fmt.Errorf("path: data must start with a command")
		}
		rel := op >= 'a' && op <= 'z'
		up := op &^ 0x20
		switch up {
		case 'M':
			p, err := pt(rel)
			if err != nil {
				return nil, err
			}
			segs = append(segs, Segment{Op: 'M', Pts: []gg.Point{p}})
			cur, start = p, p
			// implicit coordinates after M are line-tos
			if rel {
				op = 'l'
			} else {
				op = 'L'
			}
		case 'L':
			p, err := pt(rel)
			if err != nil {
				return nil, err
			}
			segs = append(segs, Segment{Op: 'L', Pts: []gg.Point{p}})
			cur = p
		case 'H', 'V':
			v, err := num()
			if err != nil {
				return nil, err
			}
			p := cur
			switch {
			case up == 'H' && rel:
				p.X += v
			case up == 'H':
				p.X = v
			case rel:
				p.Y += v
			default:
				p.Y = v
			}
			segs = append(segs, Segment{Op: 'L', Pts: []gg.Point{p}})
			cur = p
		case 'Q', 'T':
			c := mirror(cur, lastCtrl, lastOp == 'Q' || lastOp == 'T')
			if up == 'Q' {
				var err error
				if c, err = pt(rel); err != nil {
					return nil, err
				}
			}
			p, err := pt(rel)
			if err != nil {
				return nil, err
			}
			segs = append(segs, Segment{Op: 'Q', Pts: []gg.Point{c, p}})
			lastCtrl, cur = c, p
		case 'C', 'S':
			c1 := mirror(cur, lastCtrl, lastOp == 'C' || lastOp == 'S')
			if up == 'C' {
				var err error
				if c1, err = pt(rel); err != nil {
					return nil, err
				}
			}
			c2, err := pt(rel)
			if err != nil {
				return nil, err
			}
			p, err := pt(rel)
			if err != nil {
				return nil, err
			}
			segs = append(segs, Segment{Op: 'C', Pts: []gg.Point{c1, c2, p}})
			lastCtrl, cur = c2, p
		case 'Z':
			segs = append(segs, Segment{Op: 'Z'})
			cur = start
			op = 0
		default:
			return nil, fmt.Errorf("path: unsupported command %q", string(op))
		}
		lastOp = up
	}
	return segs, nil
}

func mirror(cur, ctrl gg.Point, ok bool) gg.Point {
	if !ok {
		return cur
	}
	return gg.Pt(2*cur.X-ctrl.X, 2*cur.Y-ctrl.Y)
}

type pathToken struct {
	op  byte
	num float64
}

func tokenizePath(d string) ([]pathToken, error) {
	var toks []pathToken
	for i := 0; i < len(d); {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\n' || c == '\t' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvQqTtCcSsZz", c) >= 0:
			toks = append(toks, pathToken{op: c})
			i++
		default:
			j := i
			if d[j] == '-' || d[j] == '+' {
				j++
			}
			dot := false
			for j < len(d) && (d[j] >= '0' && d[j] <= '9' || d[j] == '.' && !dot) {
				if d[j] == '.' {
					dot = true
				}
				j++
			}
			if j < len(d) && (d[j] == 'e' || d[j] == 'E') {
				j++
				if j < len(d) && (d[j] == '-' || d[j] == '+') {
					j++
				}
				for j < len(d) && d[j] >= '0' && d[j] <= '9' {
					j++
				}
			}
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil || j == i {
				return nil, fmt.Errorf("path: bad number at offset %d", i)
			}
			toks = append(toks, pathToken{num: v})
			i = j
		}
	}
	return toks, nil
}

// PathBounds returns the extent of the segments, sampling curves.
func PathBounds(segs []Segment) Rect {
	var pts []gg.Point
	var cur gg.Point
	for _, s := range segs {
		switch s.Op {
		case 'M', 'L':
			pts = append(pts, s.Pts[0])
			cur = s.Pts[0]
		case 'Q':
			for k := 1; k <= 16; k++ {
				t := float64(k) / 16
				pts = append(pts, quadAt(cur, s.Pts[0], s.Pts[1], t))
			}
			cur = s.Pts[1]
		case 'C':
			for k := 1; k <= 16; k++ {
				t := float64(k) / 16
				pts = append(pts, cubicAt(cur, s.Pts[0], s.Pts[1], s.Pts[2], t))
			}
			cur = s.Pts[2]
		}
	}
	if len(pts) == 0 {
		return Rect{}
	}
	return boundsOf(pts)
}

func quadAt(p0, p1, p2 gg.Point, t float64) gg.Point {
	u := 1 - t
	return gg.Pt(
		u*u*p0.X+2*u*t*p1.X+t*t*p2.X,
		u*u*p0.Y+2*u*t*p1.Y+t*t*p2.Y,
	)
}

func cubicAt(p0, p1, p2, p3 gg.Point, t float64) gg.Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return gg.Pt(
		a*p0.X+b*p1.X+c*p2.X+d*p3.X,
		a*p0.Y+b*p1.Y+c*p2.Y+d*p3.Y,
	)
}
