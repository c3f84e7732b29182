// Package compositor rasterizes documents primitive by primitive. Every
// draw call takes its color and geometry from object fields, never from a
// rendered view, so the same document and target size always produce the
// same pixels.
package compositor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/Henry5410858/design-sub000/core"
)

// Placeholder styling for image objects whose bitmap failed to load.
const (
	placeholderFill   = "#e0e0e0"
	placeholderBorder = "#9e9e9e"
)

type Compositor struct {
	loader core.BitmapLoader
}

func New(loader core.BitmapLoader) *Compositor {
	return &Compositor{loader: loader}
}

// Composite renders the document onto a fresh surface of the given target
// size. Objects are drawn in ascending z-order; image loads settle
// (successfully or as a placeholder) before the function returns, so a
// partial composite is never handed out.
func (c *Compositor) Composite(ctx context.Context, doc *core.Document, targetWidth, targetHeight int) (image.Image, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", targetWidth, targetHeight)
	}

	dc := gg.NewContext(targetWidth, targetHeight)

	bg := doc.Background
	if bg == "" {
		bg = "#ffffff"
	}
	setPaint(dc, bg, 1)
	dc.Clear()

	// All geometry below is in document canvas units.
	dc.Scale(float64(targetWidth)/doc.CanvasWidth, float64(targetHeight)/doc.CanvasHeight)

	for _, o := range doc.Objects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.drawObject(ctx, dc, o)
	}
	return dc.Image(), nil
}

// Thumbnail composites at a size that fits maxEdge while preserving the
// canvas aspect ratio.
func (c *Compositor) Thumbnail(ctx context.Context, doc *core.Document, maxEdge int) (image.Image, error) {
	if maxEdge <= 0 {
		return nil, fmt.Errorf("invalid thumbnail edge %d", maxEdge)
	}
	w, h := doc.CanvasWidth, doc.CanvasHeight
	scale := float64(maxEdge) / w
	if h > w {
		scale = float64(maxEdge) / h
	}
	tw := int(math.Max(1, math.Round(w*scale)))
	th := int(math.Max(1, math.Round(h*scale)))
	return c.Composite(ctx, doc, tw, th)
}

func (c *Compositor) drawObject(ctx context.Context, dc *gg.Context, o core.Object) {
	b := o.Base()
	x, y, w, h := core.BoundingBox(o)

	dc.Push()
	defer dc.Pop()
	if b.Rotation != 0 {
		dc.RotateAbout(gg.Radians(b.Rotation), x+w/2, y+h/2)
	}

	switch t := o.(type) {
	case *core.Text:
		c.drawText(dc, t)
	case *core.Image:
		c.drawImage(ctx, dc, t)
	case *core.Rect, *core.Circle, *core.Triangle, *core.Polygon, *core.Path, *core.Line:
		c.drawShape(dc, o)
	default:
		// The variant set is closed; reaching here means a new kind was
		// added without a draw rule.
		logrus.WithField("kind", o.Kind()).Error("No draw rule for object kind")
	}
}

// Embedded Go fonts, parsed once. Deterministic glyph output with no font
// files to load; the bitmap face is the last-resort fallback if parsing
// ever fails.
var (
	fontOnce    sync.Once
	regularFont *sfnt.Font
	boldFont    *sfnt.Font
)

// faceFor builds a face from the text object's own font fields. Size and
// weight come from the object; the face itself is the embedded Go font.
func faceFor(t *core.Text) font.Face {
	fontOnce.Do(func() {
		regularFont, _ = opentype.Parse(goregular.TTF)
		boldFont, _ = opentype.Parse(gobold.TTF)
	})
	size := t.FontSize
	if size <= 0 {
		size = 16
	}
	f := regularFont
	if t.FontWeight == "bold" && boldFont != nil {
		f = boldFont
	}
	if f == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// drawText renders each line centered horizontally in the object's box,
// with the block centered vertically. Paint and font metrics come from the
// object's own fields; there is no renderer default to lean on.
func (c *Compositor) drawText(dc *gg.Context, t *core.Text) {
	fill := t.Fill
	if fill == "" {
		fill = "#000000"
	}
	setPaint(dc, fill, t.Opacity)
	dc.SetFontFace(faceFor(t))

	x, y, w, h := core.BoundingBox(t)
	lines := t.Lines()
	size := t.FontSize
	if size <= 0 {
		size = 16
	}
	lineHeight := size * t.EffectiveLineHeight() * t.ScaleY
	top := y + (h-lineHeight*float64(len(lines)))/2
	for i, line := range lines {
		cy := top + lineHeight*(float64(i)+0.5)
		dc.DrawStringAnchored(line, x+w/2, cy, 0.5, 0.5)
	}
}

func (c *Compositor) drawImage(ctx context.Context, dc *gg.Context, img *core.Image) {
	x, y, w, h := core.BoundingBox(img)
	if w <= 0 || h <= 0 || img.Opacity <= 0 {
		return
	}

	bitmap, err := c.loader.Load(ctx, img.Source)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"source": img.Source,
			"object": img.ID,
		}).WithError(err).Warn("Bitmap load failed, drawing placeholder")
		c.drawPlaceholder(dc, x, y, w, h)
		return
	}

	bounds := bitmap.Bounds()
	bw, bh := float64(bounds.Dx()), float64(bounds.Dy())
	if bw <= 0 || bh <= 0 {
		c.drawPlaceholder(dc, x, y, w, h)
		return
	}

	// Bitmaps honor object opacity like every other variant: fade the
	// pixels through a uniform alpha mask before compositing.
	if img.Opacity < 1 {
		bitmap = fadeBitmap(bitmap, img.Opacity)
	}

	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/bw, h/bh)
	dc.DrawImage(bitmap, 0, 0)
	dc.Pop()
}

func fadeBitmap(src image.Image, opacity float64) image.Image {
	bounds := src.Bounds()
	faded := image.NewRGBA(bounds)
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(faded, bounds, src, bounds.Min, mask, image.Point{}, draw.Src)
	return faded
}

func (c *Compositor) drawPlaceholder(dc *gg.Context, x, y, w, h float64) {
	setPaint(dc, placeholderFill, 1)
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()

	setPaint(dc, placeholderBorder, 1)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()
	dc.SetDash()
}

func (c *Compositor) drawShape(dc *gg.Context, o core.Object) {
	b := o.Base()

	if b.Shadow != nil && b.Shadow.Color != "" {
		dc.Push()
		dc.Translate(b.Shadow.OffsetX, b.Shadow.OffsetY)
		tracePath(dc, o)
		setPaint(dc, b.Shadow.Color, 0.5*b.Opacity)
		dc.Fill()
		dc.Pop()
	}

	tracePath(dc, o)

	fill := b.Fill
	if fill == "" {
		fill = "#000000"
	}
	if _, isLine := o.(*core.Line); !isLine {
		setPaint(dc, fill, b.Opacity)
		if b.StrokeWidth > 0 && b.StrokeColor != "" {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}

	if b.StrokeWidth > 0 && b.StrokeColor != "" {
		setPaint(dc, b.StrokeColor, b.Opacity)
		dc.SetLineWidth(b.StrokeWidth)
		applyLineStyle(dc, b)
		dc.Stroke()
	} else if _, isLine := o.(*core.Line); isLine {
		// A line with no stroke settings still has to be visible.
		setPaint(dc, fill, b.Opacity)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
}

// tracePath adds the object's geometry to the current path, in canvas
// coordinates with scale applied.
func tracePath(dc *gg.Context, o core.Object) {
	b := o.Base()
	switch t := o.(type) {
	case *core.Rect:
		w := t.Width * b.ScaleX
		h := t.Height * b.ScaleY
		if t.CornerRadius > 0 {
			r := t.CornerRadius * math.Min(b.ScaleX, b.ScaleY)
			dc.DrawRoundedRectangle(b.X, b.Y, w, h, r)
		} else {
			dc.DrawRectangle(b.X, b.Y, w, h)
		}
	case *core.Circle:
		rx := t.Radius * b.ScaleX
		ry := t.Radius * b.ScaleY
		dc.DrawEllipse(b.X+rx, b.Y+ry, rx, ry)
	case *core.Triangle:
		tracePoints(dc, b, t.Points)
	case *core.Polygon:
		tracePoints(dc, b, t.Points)
	case *core.Path:
		dc.Push()
		dc.Translate(b.X, b.Y)
		dc.Scale(b.ScaleX, b.ScaleY)
		tracePathData(dc, t.Data)
		dc.Pop()
	case *core.Line:
		dc.MoveTo(b.X, b.Y)
		dc.LineTo(b.X+t.EndX*b.ScaleX, b.Y+t.EndY*b.ScaleY)
	}
}

func tracePoints(dc *gg.Context, b *core.ObjectBase, points []core.Point) {
	if len(points) < 2 {
		return
	}
	dc.NewSubPath()
	for i, p := range points {
		x := b.X + p.X*b.ScaleX
		y := b.Y + p.Y*b.ScaleY
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

func applyLineStyle(dc *gg.Context, b *core.ObjectBase) {
	switch b.StrokeCap {
	case core.CapRound:
		dc.SetLineCapRound()
	case core.CapSquare:
		dc.SetLineCapSquare()
	default:
		dc.SetLineCapButt()
	}
	switch b.StrokeJoin {
	case core.JoinBevel, core.JoinMiter:
		// The rasterizer has no miter join; bevel is the closest
		// sharp-corner rendering.
		dc.SetLineJoinBevel()
	default:
		dc.SetLineJoinRound()
	}
}

// setPaint sets the context color from a hex string, multiplying in the
// object's opacity. Unparseable colors paint black so a bad value is
// visible instead of silently dropped. Opacity 0 is a valid value and
// paints nothing.
func setPaint(dc *gg.Context, hex string, opacity float64) {
	r, g, b, ok := parseHexColor(hex)
	if !ok {
		r, g, b = 0, 0, 0
	}
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}
	dc.SetRGBA(r, g, b, opacity)
}

func parseHexColor(s string) (r, g, b float64, ok bool) {
	if len(s) == 0 || s[0] != '#' {
		return 0, 0, 0, false
	}
	hexVal := func(c byte) (int, bool) {
		switch {
		case c >= '0' && c <= '9':
			return int(c - '0'), true
		case c >= 'a' && c <= 'f':
			return int(c-'a') + 10, true
		case c >= 'A' && c <= 'F':
			return int(c-'A') + 10, true
		}
		return 0, false
	}
	switch len(s) {
	case 4: // #rgb
		var v [3]int
		for i := 0; i < 3; i++ {
			h, good := hexVal(s[i+1])
			if !good {
				return 0, 0, 0, false
			}
			v[i] = h*16 + h
		}
		return float64(v[0]) / 255, float64(v[1]) / 255, float64(v[2]) / 255, true
	case 7: // #rrggbb
		var v [3]int
		for i := 0; i < 3; i++ {
			hi, good := hexVal(s[1+i*2])
			if !good {
				return 0, 0, 0, false
			}
			lo, good := hexVal(s[2+i*2])
			if !good {
				return 0, 0, 0, false
			}
			v[i] = hi*16 + lo
		}
		return float64(v[0]) / 255, float64(v[1]) / 255, float64(v[2]) / 255, true
	}
	return 0, 0, 0, false
}
