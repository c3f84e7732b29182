package core

type (
	// Patch is a partial update for one object. Nil fields are left
	// untouched. Variant sections only apply when the target object is of
	// the matching kind.
	Patch struct {
		X           *float64
		Y           *float64
		ScaleX      *float64
		ScaleY      *float64
		Rotation    *float64
		Opacity     *float64
		Fill        *string
		StrokeColor *string
		StrokeWidth *float64
		StrokeCap   *string
		StrokeJoin  *string
		Shadow      *Shadow
		ClearShadow bool

		Text     *TextPatch
		Image    *ImagePatch
		Rect     *RectPatch
		Circle   *CirclePatch
		Points   *PointsPatch
		Path     *PathPatch
		Line     *LinePatch
	}

	TextPatch struct {
		Content       *string
		FontFamily    *string
		FontSize      *float64
		FontWeight    *string
		Align         *string
		LetterSpacing *float64
		LineHeight    *float64
	}

	ImagePatch struct {
		Source *string
		Width  *float64
		Height *float64
	}

	RectPatch struct {
		Width        *float64
		Height       *float64
		CornerRadius *float64
	}

	CirclePatch struct {
		Radius *float64
	}

	// PointsPatch replaces the point list of a triangle or polygon.
	PointsPatch struct {
		Points []Point
	}

	PathPatch struct {
		Data   *string
		Width  *float64
		Height *float64
	}

	LinePatch struct {
		EndX *float64
		EndY *float64
	}
)

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setS(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (p Patch) apply(o Object) {
	b := o.Base()
	setF(&b.X, p.X)
	setF(&b.Y, p.Y)
	setF(&b.ScaleX, p.ScaleX)
	setF(&b.ScaleY, p.ScaleY)
	setF(&b.Rotation, p.Rotation)
	setF(&b.Opacity, p.Opacity)
	setS(&b.Fill, p.Fill)
	setS(&b.StrokeColor, p.StrokeColor)
	setF(&b.StrokeWidth, p.StrokeWidth)
	setS(&b.StrokeCap, p.StrokeCap)
	setS(&b.StrokeJoin, p.StrokeJoin)
	if p.ClearShadow {
		b.Shadow = nil
	} else if p.Shadow != nil {
		s := *p.Shadow
		b.Shadow = &s
	}

	switch t := o.(type) {
	case *Text:
		if p.Text != nil {
			setS(&t.Content, p.Text.Content)
			setS(&t.FontFamily, p.Text.FontFamily)
			setF(&t.FontSize, p.Text.FontSize)
			setS(&t.FontWeight, p.Text.FontWeight)
			setS(&t.Align, p.Text.Align)
			setF(&t.LetterSpacing, p.Text.LetterSpacing)
			setF(&t.LineHeight, p.Text.LineHeight)
		}
	case *Image:
		if p.Image != nil {
			setS(&t.Source, p.Image.Source)
			setF(&t.Width, p.Image.Width)
			setF(&t.Height, p.Image.Height)
		}
	case *Rect:
		if p.Rect != nil {
			setF(&t.Width, p.Rect.Width)
			setF(&t.Height, p.Rect.Height)
			setF(&t.CornerRadius, p.Rect.CornerRadius)
		}
	case *Circle:
		if p.Circle != nil {
			setF(&t.Radius, p.Circle.Radius)
		}
	case *Triangle:
		if p.Points != nil {
			t.Points = append([]Point(nil), p.Points.Points...)
		}
	case *Polygon:
		if p.Points != nil {
			t.Points = append([]Point(nil), p.Points.Points...)
		}
	case *Path:
		if p.Path != nil {
			setS(&t.Data, p.Path.Data)
			setF(&t.Width, p.Path.Width)
			setF(&t.Height, p.Path.Height)
		}
	case *Line:
		if p.Line != nil {
			setF(&t.EndX, p.Line.EndX)
			setF(&t.EndY, p.Line.EndY)
		}
	}
}
