package core

// Clamp adjusts an object's position and, if needed, scale so that its
// bounding box fits inside the canvas. If the unscaled object is larger
// than the canvas in a dimension, the scale for that dimension is reduced
// until the box fits, and the position snaps to that edge. Locked
// background images are exempt; they follow the cover rule instead.
func Clamp(o Object, canvasWidth, canvasHeight float64) {
	if img, ok := o.(*Image); ok && img.Locked {
		return
	}
	b := o.Base()
	ox, oy, w, h := extent(o)

	// The box origin can sit off the object position (negative line
	// endpoints, negative vertices), so all edge math goes through the
	// extent offset.
	if w > canvasWidth {
		b.ScaleX *= canvasWidth / w
		ox, oy, w, h = extent(o)
		b.X = -ox
	}
	if h > canvasHeight {
		b.ScaleY *= canvasHeight / h
		ox, oy, w, h = extent(o)
		b.Y = -oy
	}

	if b.X+ox < 0 {
		b.X = -ox
	}
	if b.Y+oy < 0 {
		b.Y = -oy
	}
	if b.X+ox+w > canvasWidth {
		b.X = canvasWidth - w - ox
	}
	if b.Y+oy+h > canvasHeight {
		b.Y = canvasHeight - h - oy
	}
}

// ClampAll re-clamps every object, typically at end of a gesture.
func ClampAll(doc *Document) {
	for _, o := range doc.objects {
		Clamp(o, doc.CanvasWidth, doc.CanvasHeight)
	}
}

// BringToFront moves the object to the tail of the render order. The
// relative order of all other objects is preserved. Unknown ids are
// ignored.
func BringToFront(doc *Document, id string) {
	if o, ok := splice(doc, id); ok {
		doc.objects = append(doc.objects, o)
		NormalizeBackground(doc)
		doc.touch()
	}
}

// SendToBack moves the object to the head of the render order.
func SendToBack(doc *Document, id string) {
	if o, ok := splice(doc, id); ok {
		doc.objects = append([]Object{o}, doc.objects...)
		NormalizeBackground(doc)
		doc.touch()
	}
}

func splice(doc *Document, id string) (Object, bool) {
	for i, o := range doc.objects {
		if o.Base().ID == id {
			doc.objects = append(doc.objects[:i], doc.objects[i+1:]...)
			return o, true
		}
	}
	return nil, false
}

// NormalizeBackground pins the locked background image, when present, to
// index 0 and sizes it to cover the canvas:
// scale = max(canvasW/imageW, canvasH/imageH), anchored at the origin.
func NormalizeBackground(doc *Document) {
	img, ok := doc.backgroundObject()
	if !ok {
		return
	}
	if doc.objects[0] != Object(img) {
		if o, found := splice(doc, img.ID); found {
			doc.objects = append([]Object{o}, doc.objects...)
		}
	}
	if img.Width > 0 && img.Height > 0 {
		scale := doc.CanvasWidth / img.Width
		if s := doc.CanvasHeight / img.Height; s > scale {
			scale = s
		}
		img.ScaleX = scale
		img.ScaleY = scale
	}
	img.X = 0
	img.Y = 0
}
