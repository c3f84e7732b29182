package core

import (
	"math"
	"strings"
)

// Kind discriminates the drawable object variants.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindRect     Kind = "rect"
	KindCircle   Kind = "circle"
	KindTriangle Kind = "triangle"
	KindPolygon  Kind = "polygon"
	KindPath     Kind = "path"
	KindLine     Kind = "line"
)

// Line cap/join values follow the usual canvas vocabulary.
const (
	CapButt   = "butt"
	CapRound  = "round"
	CapSquare = "square"

	JoinMiter = "miter"
	JoinRound = "round"
	JoinBevel = "bevel"
)

type (
	// Point is a coordinate relative to an object's position.
	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Shadow describes an optional drop shadow.
	Shadow struct {
		OffsetX float64 `json:"offsetX"`
		OffsetY float64 `json:"offsetY"`
		Blur    float64 `json:"blur"`
		Color   string  `json:"color"`
	}

	// ObjectBase carries the fields shared by every drawable variant.
	// Scale factors and opacity default to 1.
	ObjectBase struct {
		ID          string
		X           float64
		Y           float64
		ScaleX      float64
		ScaleY      float64
		Rotation    float64 // degrees, clockwise
		Opacity     float64 // 0..1
		Fill        string
		StrokeColor string
		StrokeWidth float64
		StrokeCap   string
		StrokeJoin  string
		Shadow      *Shadow
	}

	// Object is the closed set of drawable variants. Every consumer
	// (codec, compositor, boundary policy) switches exhaustively on the
	// concrete type, so adding a variant is a compile-checked change.
	Object interface {
		Base() *ObjectBase
		Kind() Kind
		// Size reports the unscaled width and height of the object's box.
		Size() (w, h float64)
		Clone() Object

		isObject()
	}
)

// Text is a styled string drawn centered in its box.
type Text struct {
	ObjectBase
	Content       string
	FontFamily    string
	FontSize      float64
	FontWeight    string
	Align         string
	LetterSpacing float64
	LineHeight    float64 // multiplier, 1.2 when zero
}

// Image references an external bitmap. A locked image is the document
// background and is pinned to the bottom of the z-order.
type Image struct {
	ObjectBase
	Source string
	Locked bool
	Width  float64
	Height float64
}

type Rect struct {
	ObjectBase
	Width        float64
	Height       float64
	CornerRadius float64
}

type Circle struct {
	ObjectBase
	Radius float64
}

type Triangle struct {
	ObjectBase
	Points []Point
}

type Polygon struct {
	ObjectBase
	Points []Point
}

// Path carries SVG-style path data scoped to its own box.
type Path struct {
	ObjectBase
	Data   string
	Width  float64
	Height float64
}

// Line runs from the object position to position+(EndX, EndY).
type Line struct {
	ObjectBase
	EndX float64
	EndY float64
}

func (b *ObjectBase) Base() *ObjectBase { return b }

func (*Text) isObject()     {}
func (*Image) isObject()    {}
func (*Rect) isObject()     {}
func (*Circle) isObject()   {}
func (*Triangle) isObject() {}
func (*Polygon) isObject()  {}
func (*Path) isObject()     {}
func (*Line) isObject()     {}

func (*Text) Kind() Kind     { return KindText }
func (*Image) Kind() Kind    { return KindImage }
func (*Rect) Kind() Kind     { return KindRect }
func (*Circle) Kind() Kind   { return KindCircle }
func (*Triangle) Kind() Kind { return KindTriangle }
func (*Polygon) Kind() Kind  { return KindPolygon }
func (*Path) Kind() Kind     { return KindPath }
func (*Line) Kind() Kind     { return KindLine }

// EffectiveLineHeight returns the line height multiplier, defaulting to 1.2.
func (t *Text) EffectiveLineHeight() float64 {
	if t.LineHeight > 0 {
		return t.LineHeight
	}
	return 1.2
}

// Lines splits the content on newlines. A text object always has at least
// one (possibly empty) line.
func (t *Text) Lines() []string {
	return strings.Split(t.Content, "\n")
}

// Size estimates the text box from the object's own font metrics. The
// compositor uses the same estimate, so clamping and drawing agree without
// consulting a renderer.
func (t *Text) Size() (float64, float64) {
	size := t.FontSize
	if size <= 0 {
		size = 16
	}
	lines := t.Lines()
	longest := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > longest {
			longest = n
		}
	}
	w := float64(longest) * size * 0.6
	if longest > 1 {
		w += float64(longest-1) * t.LetterSpacing
	}
	h := float64(len(lines)) * size * t.EffectiveLineHeight()
	return w, h
}

func (i *Image) Size() (float64, float64) { return i.Width, i.Height }

func (r *Rect) Size() (float64, float64) { return r.Width, r.Height }

func (c *Circle) Size() (float64, float64) { return 2 * c.Radius, 2 * c.Radius }

func (t *Triangle) Size() (float64, float64) { return pointBounds(t.Points) }

func (p *Polygon) Size() (float64, float64) { return pointBounds(p.Points) }

func (p *Path) Size() (float64, float64) { return p.Width, p.Height }

func (l *Line) Size() (float64, float64) {
	w, h := l.EndX, l.EndY
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	return w, h
}

func pointBounds(pts []Point) (float64, float64) {
	minX, minY, maxX, maxY := pointExtent(pts)
	return maxX - minX, maxY - minY
}

func pointExtent(pts []Point) (minX, minY, maxX, maxY float64) {
	for i, p := range pts {
		if i == 0 {
			minX, minY, maxX, maxY = p.X, p.Y, p.X, p.Y
			continue
		}
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// extent reports the scaled box of the object's geometry relative to its
// position: the offset of the box origin plus its size. Line endpoints and
// point lists can run negative, so the offset is not always zero.
func extent(o Object) (ox, oy, w, h float64) {
	b := o.Base()
	switch t := o.(type) {
	case *Line:
		minX, maxX := math.Min(0, t.EndX), math.Max(0, t.EndX)
		minY, maxY := math.Min(0, t.EndY), math.Max(0, t.EndY)
		return minX * b.ScaleX, minY * b.ScaleY, (maxX - minX) * b.ScaleX, (maxY - minY) * b.ScaleY
	case *Triangle:
		return pointExtentScaled(t.Points, b)
	case *Polygon:
		return pointExtentScaled(t.Points, b)
	}
	ow, oh := o.Size()
	return 0, 0, ow * b.ScaleX, oh * b.ScaleY
}

func pointExtentScaled(pts []Point, b *ObjectBase) (ox, oy, w, h float64) {
	minX, minY, maxX, maxY := pointExtent(pts)
	return minX * b.ScaleX, minY * b.ScaleY, (maxX - minX) * b.ScaleX, (maxY - minY) * b.ScaleY
}

// BoundingBox reports the object's axis-aligned box on the canvas after
// applying its scale factors. The box origin is the minimum of the actual
// geometry, which for lines and point lists can sit left of or above the
// object position.
func BoundingBox(o Object) (x, y, w, h float64) {
	b := o.Base()
	ox, oy, w, h := extent(o)
	return b.X + ox, b.Y + oy, w, h
}

func (b ObjectBase) cloneBase() ObjectBase {
	if b.Shadow != nil {
		s := *b.Shadow
		b.Shadow = &s
	}
	return b
}

func (t *Text) Clone() Object {
	c := *t
	c.ObjectBase = t.cloneBase()
	return &c
}

func (i *Image) Clone() Object {
	c := *i
	c.ObjectBase = i.cloneBase()
	return &c
}

func (r *Rect) Clone() Object {
	c := *r
	c.ObjectBase = r.cloneBase()
	return &c
}

func (cr *Circle) Clone() Object {
	c := *cr
	c.ObjectBase = cr.cloneBase()
	return &c
}

func (t *Triangle) Clone() Object {
	c := *t
	c.ObjectBase = t.cloneBase()
	c.Points = append([]Point(nil), t.Points...)
	return &c
}

func (p *Polygon) Clone() Object {
	c := *p
	c.ObjectBase = p.cloneBase()
	c.Points = append([]Point(nil), p.Points...)
	return &c
}

func (p *Path) Clone() Object {
	c := *p
	c.ObjectBase = p.cloneBase()
	return &c
}

func (l *Line) Clone() Object {
	c := *l
	c.ObjectBase = l.cloneBase()
	return &c
}
