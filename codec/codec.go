// Package codec converts documents to and from their persisted payload
// form, degrading oversized payloads in defined steps rather than failing.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Henry5410858/design-sub000/core"
)

type (
	documentDTO struct {
		FormatVersion   int          `json:"formatVersion"`
		ID              string       `json:"id"`
		Kind            string       `json:"kind"`
		CanvasWidth     float64      `json:"canvasWidth"`
		CanvasHeight    float64      `json:"canvasHeight"`
		Background      string       `json:"background"`
		BackgroundImage string       `json:"backgroundImage,omitempty"`
		TemplateKey     string       `json:"templateKey,omitempty"`
		CreatedAt       time.Time    `json:"createdAt"`
		UpdatedAt       time.Time    `json:"updatedAt"`
		Minimal         bool         `json:"minimal,omitempty"`
		Objects         []objectDTO  `json:"objects"`
	}

	// objectDTO is the wire form of a drawable object. Pointer fields let
	// the optimize pass drop values equal to their defaults; the full
	// encoding populates every field relevant to the variant so a decoder
	// never has to consult renderer defaults.
	objectDTO struct {
		Type string `json:"type"`
		ID   string `json:"id"`

		X           *float64     `json:"x,omitempty"`
		Y           *float64     `json:"y,omitempty"`
		ScaleX      *float64     `json:"scaleX,omitempty"`
		ScaleY      *float64     `json:"scaleY,omitempty"`
		Rotation    *float64     `json:"rotation,omitempty"`
		Opacity     *float64     `json:"opacity,omitempty"`
		Fill        *string      `json:"fill,omitempty"`
		StrokeColor *string      `json:"strokeColor,omitempty"`
		StrokeWidth *float64     `json:"strokeWidth,omitempty"`
		StrokeCap   *string      `json:"strokeCap,omitempty"`
		StrokeJoin  *string      `json:"strokeJoin,omitempty"`
		Shadow      *core.Shadow `json:"shadow,omitempty"`

		Content       *string  `json:"content,omitempty"`
		FontFamily    *string  `json:"fontFamily,omitempty"`
		FontSize      *float64 `json:"fontSize,omitempty"`
		FontWeight    *string  `json:"fontWeight,omitempty"`
		Align         *string  `json:"align,omitempty"`
		LetterSpacing *float64 `json:"letterSpacing,omitempty"`
		LineHeight    *float64 `json:"lineHeight,omitempty"`

		Source *string `json:"source,omitempty"`
		Locked *bool   `json:"locked,omitempty"`

		Width        *float64 `json:"width,omitempty"`
		Height       *float64 `json:"height,omitempty"`
		CornerRadius *float64 `json:"cornerRadius,omitempty"`
		Radius       *float64 `json:"radius,omitempty"`

		Points []core.Point `json:"points,omitempty"`
		Path   *string      `json:"path,omitempty"`

		EndX *float64 `json:"endX,omitempty"`
		EndY *float64 `json:"endY,omitempty"`
	}
)

// Encode produces the full, structurally complete payload for a document.
func Encode(doc *core.Document) ([]byte, error) {
	return encodeDocument(doc, false, -1)
}

// Decode reconstructs a document from a payload produced by Encode (in any
// degradation form). Truncated payloads decode to fewer objects; that is
// the documented lossy path, not an error.
func Decode(data []byte) (*core.Document, error) {
	var dto documentDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if dto.FormatVersion != core.FormatVersion {
		return nil, fmt.Errorf("unsupported payload format version %d", dto.FormatVersion)
	}
	doc, err := core.NewDocument(core.DocumentKind(dto.Kind), dto.CanvasWidth, dto.CanvasHeight)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if dto.ID != "" {
		doc.ID = dto.ID
	}
	doc.Background = dto.Background
	doc.BackgroundImage = dto.BackgroundImage
	doc.TemplateKey = dto.TemplateKey
	if !dto.CreatedAt.IsZero() {
		doc.CreatedAt = dto.CreatedAt
	}
	if !dto.UpdatedAt.IsZero() {
		doc.UpdatedAt = dto.UpdatedAt
	}
	for i, od := range dto.Objects {
		obj, err := dtoToObject(od)
		if err != nil {
			return nil, fmt.Errorf("decode object %d: %w", i, err)
		}
		doc.InsertExisting(obj)
	}
	return doc, nil
}

// DecodeInline builds a document from a record's inline fields, the
// compatibility path used when no bulk payload is reachable. A record with
// no inline objects still yields a usable, empty document.
func DecodeInline(rec *core.DesignRecord) (*core.Document, error) {
	w, h := rec.CanvasWidth, rec.CanvasHeight
	if w <= 0 || h <= 0 {
		// Very old records carried no canvas size; fall back to a sane
		// editing surface rather than failing the load.
		w, h = 800, 600
	}
	kind := rec.Kind
	if kind == "" {
		kind = core.KindCustom
	}
	doc, err := core.NewDocument(kind, w, h)
	if err != nil {
		return nil, err
	}
	if rec.Background != "" {
		doc.Background = rec.Background
	}
	doc.BackgroundImage = rec.BackgroundImage
	doc.TemplateKey = rec.TemplateKey
	if len(rec.InlineObjects) > 0 {
		var dtos []objectDTO
		if err := json.Unmarshal(rec.InlineObjects, &dtos); err != nil {
			return nil, fmt.Errorf("decode inline objects: %w", err)
		}
		for i, od := range dtos {
			obj, err := dtoToObject(od)
			if err != nil {
				return nil, fmt.Errorf("decode inline object %d: %w", i, err)
			}
			doc.InsertExisting(obj)
		}
	}
	core.NormalizeBackground(doc)
	return doc, nil
}

func encodeDocument(doc *core.Document, optimized bool, truncateAt int) ([]byte, error) {
	objects := doc.Objects()
	minimal := false
	if truncateAt >= 0 && len(objects) > truncateAt {
		objects = objects[:truncateAt]
		minimal = true
	}
	dto := documentDTO{
		FormatVersion:   core.FormatVersion,
		ID:              doc.ID,
		Kind:            string(doc.Kind),
		CanvasWidth:     doc.CanvasWidth,
		CanvasHeight:    doc.CanvasHeight,
		Background:      doc.Background,
		BackgroundImage: doc.BackgroundImage,
		TemplateKey:     doc.TemplateKey,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		Minimal:         minimal,
		Objects:         make([]objectDTO, 0, len(objects)),
	}
	for _, o := range objects {
		dto.Objects = append(dto.Objects, objectToDTO(o, optimized))
	}
	return json.Marshal(dto)
}

// encodeObjects serializes just the object list, used for a record's
// inline fields. It is always optimized and capped.
func encodeObjects(doc *core.Document, cap int) ([]byte, error) {
	objects := doc.Objects()
	if cap >= 0 && len(objects) > cap {
		objects = objects[:cap]
	}
	dtos := make([]objectDTO, 0, len(objects))
	for _, o := range objects {
		dtos = append(dtos, objectToDTO(o, true))
	}
	return json.Marshal(dtos)
}

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }
func bp(v bool) *bool       { return &v }

// fOpt includes a numeric field unless optimizing and the value equals its
// default.
func fOpt(v, def float64, optimized bool) *float64 {
	if optimized && v == def {
		return nil
	}
	return fp(v)
}

func sOpt(v string, optimized bool) *string {
	if optimized && v == "" {
		return nil
	}
	return sp(v)
}

func objectToDTO(o core.Object, optimized bool) objectDTO {
	b := o.Base()
	dto := objectDTO{
		Type:        string(o.Kind()),
		ID:          b.ID,
		X:           fOpt(b.X, 0, optimized),
		Y:           fOpt(b.Y, 0, optimized),
		ScaleX:      fOpt(b.ScaleX, 1, optimized),
		ScaleY:      fOpt(b.ScaleY, 1, optimized),
		Rotation:    fOpt(b.Rotation, 0, optimized),
		Opacity:     fOpt(b.Opacity, 1, optimized),
		Fill:        sOpt(b.Fill, optimized),
		StrokeColor: sOpt(b.StrokeColor, optimized),
		StrokeWidth: fOpt(b.StrokeWidth, 0, optimized),
		StrokeCap:   sOpt(b.StrokeCap, optimized),
		StrokeJoin:  sOpt(b.StrokeJoin, optimized),
		Shadow:      b.Shadow,
	}
	switch t := o.(type) {
	case *core.Text:
		dto.Content = sp(t.Content)
		dto.FontFamily = sOpt(t.FontFamily, optimized)
		dto.FontSize = fOpt(t.FontSize, 0, optimized)
		dto.FontWeight = sOpt(t.FontWeight, optimized)
		dto.Align = sOpt(t.Align, optimized)
		dto.LetterSpacing = fOpt(t.LetterSpacing, 0, optimized)
		dto.LineHeight = fOpt(t.LineHeight, 0, optimized)
	case *core.Image:
		dto.Source = sp(t.Source)
		if !optimized || t.Locked {
			dto.Locked = bp(t.Locked)
		}
		dto.Width = fOpt(t.Width, 0, optimized)
		dto.Height = fOpt(t.Height, 0, optimized)
	case *core.Rect:
		dto.Width = fp(t.Width)
		dto.Height = fp(t.Height)
		dto.CornerRadius = fOpt(t.CornerRadius, 0, optimized)
	case *core.Circle:
		dto.Radius = fp(t.Radius)
	case *core.Triangle:
		dto.Points = t.Points
	case *core.Polygon:
		dto.Points = t.Points
	case *core.Path:
		dto.Path = sp(t.Data)
		dto.Width = fOpt(t.Width, 0, optimized)
		dto.Height = fOpt(t.Height, 0, optimized)
	case *core.Line:
		dto.EndX = fp(t.EndX)
		dto.EndY = fp(t.EndY)
	}
	return dto
}

func fVal(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func sVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func dtoToObject(dto objectDTO) (core.Object, error) {
	base := core.ObjectBase{
		ID:          dto.ID,
		X:           fVal(dto.X, 0),
		Y:           fVal(dto.Y, 0),
		ScaleX:      fVal(dto.ScaleX, 1),
		ScaleY:      fVal(dto.ScaleY, 1),
		Rotation:    fVal(dto.Rotation, 0),
		Opacity:     fVal(dto.Opacity, 1),
		Fill:        sVal(dto.Fill),
		StrokeColor: sVal(dto.StrokeColor),
		StrokeWidth: fVal(dto.StrokeWidth, 0),
		StrokeCap:   sVal(dto.StrokeCap),
		StrokeJoin:  sVal(dto.StrokeJoin),
		Shadow:      dto.Shadow,
	}
	switch core.Kind(dto.Type) {
	case core.KindText:
		return &core.Text{
			ObjectBase:    base,
			Content:       sVal(dto.Content),
			FontFamily:    sVal(dto.FontFamily),
			FontSize:      fVal(dto.FontSize, 0),
			FontWeight:    sVal(dto.FontWeight),
			Align:         sVal(dto.Align),
			LetterSpacing: fVal(dto.LetterSpacing, 0),
			LineHeight:    fVal(dto.LineHeight, 0),
		}, nil
	case core.KindImage:
		locked := dto.Locked != nil && *dto.Locked
		return &core.Image{
			ObjectBase: base,
			Source:     sVal(dto.Source),
			Locked:     locked,
			Width:      fVal(dto.Width, 0),
			Height:     fVal(dto.Height, 0),
		}, nil
	case core.KindRect:
		return &core.Rect{
			ObjectBase:   base,
			Width:        fVal(dto.Width, 0),
			Height:       fVal(dto.Height, 0),
			CornerRadius: fVal(dto.CornerRadius, 0),
		}, nil
	case core.KindCircle:
		return &core.Circle{ObjectBase: base, Radius: fVal(dto.Radius, 0)}, nil
	case core.KindTriangle:
		return &core.Triangle{ObjectBase: base, Points: dto.Points}, nil
	case core.KindPolygon:
		return &core.Polygon{ObjectBase: base, Points: dto.Points}, nil
	case core.KindPath:
		return &core.Path{
			ObjectBase: base,
			Data:       sVal(dto.Path),
			Width:      fVal(dto.Width, 0),
			Height:     fVal(dto.Height, 0),
		}, nil
	case core.KindLine:
		return &core.Line{
			ObjectBase: base,
			EndX:       fVal(dto.EndX, 0),
			EndY:       fVal(dto.EndY, 0),
		}, nil
	}
	return nil, fmt.Errorf("unknown object type %q", dto.Type)
}
