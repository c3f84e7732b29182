package core

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// FormatVersion is the serialized document format understood by this build.
const FormatVersion = 1

// DocumentKind tags what the design is for. It only affects presentation
// defaults upstream; the engine treats it as an opaque label.
type DocumentKind string

const (
	KindFlyer  DocumentKind = "flyer"
	KindBanner DocumentKind = "banner"
	KindStory  DocumentKind = "story"
	KindBadge  DocumentKind = "badge"
	KindCustom DocumentKind = "custom"
)

// Document is the in-memory scene graph for one editable design. Object
// order is render order, index 0 at the bottom.
type Document struct {
	ID              string
	Kind            DocumentKind
	CanvasWidth     float64
	CanvasHeight    float64
	Background      string
	BackgroundImage string
	TemplateKey     string
	FormatVersion   int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	objects []Object
}

// NewDocument creates an empty document. Canvas dimensions must be
// strictly positive.
func NewDocument(kind DocumentKind, canvasWidth, canvasHeight float64) (*Document, error) {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil, fmt.Errorf("invalid canvas size %gx%g: dimensions must be positive", canvasWidth, canvasHeight)
	}
	now := time.Now()
	return &Document{
		ID:            ulid.Make().String(),
		Kind:          kind,
		CanvasWidth:   canvasWidth,
		CanvasHeight:  canvasHeight,
		Background:    "#ffffff",
		FormatVersion: FormatVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Objects returns the ordered object sequence. The slice is shared with
// the document; callers must not mutate it structurally.
func (d *Document) Objects() []Object {
	return d.objects
}

// Len reports the number of objects.
func (d *Document) Len() int { return len(d.objects) }

// Insert appends an object, assigning it a fresh id, and returns the id.
// Defaults for scale and opacity are filled in so every object is fully
// specified from the moment it exists.
func (d *Document) Insert(o Object) string {
	b := o.Base()
	b.ID = ulid.Make().String()
	if b.ScaleX == 0 {
		b.ScaleX = 1
	}
	if b.ScaleY == 0 {
		b.ScaleY = 1
	}
	if b.Opacity == 0 {
		b.Opacity = 1
	}
	d.objects = append(d.objects, o)
	d.touch()
	return b.ID
}

// InsertExisting appends an object that already carries an id, used when
// reconstructing a document from a payload. It preserves the id.
func (d *Document) InsertExisting(o Object) {
	d.objects = append(d.objects, o)
}

// Find returns the object with the given id.
func (d *Document) Find(id string) (Object, bool) {
	for _, o := range d.objects {
		if o.Base().ID == id {
			return o, true
		}
	}
	return nil, false
}

// Remove deletes the object with the given id, preserving order.
// Removing an unknown id is a no-op; a rapid double-delete from the UI
// must not surface as an error.
func (d *Document) Remove(id string) {
	for i, o := range d.objects {
		if o.Base().ID == id {
			d.objects = append(d.objects[:i], d.objects[i+1:]...)
			d.touch()
			return
		}
	}
}

// Update applies a partial-field merge to the object with the given id.
// Only non-nil patch fields change; a variant patch for a different kind
// is ignored. Returns false for an unknown id.
func (d *Document) Update(id string, p Patch) bool {
	o, ok := d.Find(id)
	if !ok {
		return false
	}
	p.apply(o)
	d.touch()
	return true
}

// SetBackground changes the background color.
func (d *Document) SetBackground(color string) {
	d.Background = color
	d.touch()
}

// SetBackgroundImage installs (or replaces) the locked background image
// object and records its reference on the document. The boundary policy
// keeps it pinned at the bottom of the z-order.
func (d *Document) SetBackgroundImage(source string, width, height float64) string {
	d.RemoveBackgroundImage()
	img := &Image{
		Source: source,
		Locked: true,
		Width:  width,
		Height: height,
	}
	id := d.Insert(img)
	d.BackgroundImage = source
	NormalizeBackground(d)
	return id
}

// RemoveBackgroundImage drops the locked background image, if any.
func (d *Document) RemoveBackgroundImage() {
	for _, o := range d.objects {
		if img, ok := o.(*Image); ok && img.Locked {
			d.Remove(img.ID)
			break
		}
	}
	d.BackgroundImage = ""
}

// backgroundObject returns the locked background image, if present.
func (d *Document) backgroundObject() (*Image, bool) {
	for _, o := range d.objects {
		if img, ok := o.(*Image); ok && img.Locked {
			return img, true
		}
	}
	return nil, false
}

// setObjects replaces the object sequence wholesale. Used by snapshot
// restore and decoding.
func (d *Document) setObjects(objects []Object) {
	d.objects = objects
}

func (d *Document) touch() {
	d.UpdatedAt = time.Now()
}
