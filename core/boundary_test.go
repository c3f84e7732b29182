package core

import "testing"

func TestClamp_PositionInsideCanvas(t *testing.T) {
	doc := newTestDocument(t)
	id := doc.Insert(&Rect{Width: 100, Height: 50, ObjectBase: ObjectBase{X: 790, Y: -20}})

	ClampAll(doc)

	o, _ := doc.Find(id)
	x, y, w, h := BoundingBox(o)
	if x < 0 || y < 0 || x+w > doc.CanvasWidth || y+h > doc.CanvasHeight {
		t.Errorf("box (%g,%g %gx%g) escapes %gx%g canvas", x, y, w, h, doc.CanvasWidth, doc.CanvasHeight)
	}
	if x != 700 || y != 0 {
		t.Errorf("clamped position = (%g,%g), want (700,0)", x, y)
	}
}

func TestClamp_OversizedObjectScalesDown(t *testing.T) {
	doc := newTestDocument(t)
	id := doc.Insert(&Rect{Width: 2000, Height: 300, ObjectBase: ObjectBase{X: 50, Y: 50}})

	ClampAll(doc)

	o, _ := doc.Find(id)
	b := o.Base()
	x, y, w, h := BoundingBox(o)
	if w > doc.CanvasWidth {
		t.Errorf("width %g still exceeds canvas %g", w, doc.CanvasWidth)
	}
	if x != 0 {
		t.Errorf("oversized axis should snap to the edge, x = %g", x)
	}
	// Only the overflowing axis is rescaled.
	if b.ScaleY != 1 {
		t.Errorf("ScaleY changed to %g for an axis that fit", b.ScaleY)
	}
	if y != 50 || h != 300 {
		t.Errorf("fitting axis moved: y=%g h=%g", y, h)
	}
}

func TestClamp_NegativeLineExtent(t *testing.T) {
	doc, err := NewDocument(KindCustom, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	id := doc.Insert(&Line{ObjectBase: ObjectBase{X: 10, Y: 10}, EndX: -50, EndY: -40})

	ClampAll(doc)

	o, _ := doc.Find(id)
	line := o.(*Line)
	// Both the position and the endpoint must land inside the canvas.
	endX := line.X + line.EndX*line.ScaleX
	endY := line.Y + line.EndY*line.ScaleY
	for name, v := range map[string]float64{"x": line.X, "y": line.Y, "endX": endX, "endY": endY} {
		if v < 0 || v > 100 {
			t.Errorf("%s = %g, outside the canvas", name, v)
		}
	}
	x, y, w, h := BoundingBox(o)
	if x < 0 || y < 0 || x+w > 100 || y+h > 100 {
		t.Errorf("box (%g,%g %gx%g) escapes the canvas", x, y, w, h)
	}
}

func TestClamp_NegativePolygonVertices(t *testing.T) {
	doc, err := NewDocument(KindCustom, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	id := doc.Insert(&Polygon{
		ObjectBase: ObjectBase{X: 5, Y: 5},
		Points:     []Point{{X: -25, Y: 0}, {X: 25, Y: -20}, {X: 0, Y: 30}},
	})

	ClampAll(doc)

	o, _ := doc.Find(id)
	p := o.(*Polygon)
	for i, pt := range p.Points {
		vx := p.X + pt.X*p.ScaleX
		vy := p.Y + pt.Y*p.ScaleY
		if vx < 0 || vx > 100 || vy < 0 || vy > 100 {
			t.Errorf("vertex %d sits at (%g,%g), off-canvas", i, vx, vy)
		}
	}
}

func TestBoundingBox_SpansNegativeGeometry(t *testing.T) {
	line := &Line{ObjectBase: ObjectBase{X: 10, Y: 10, ScaleX: 1, ScaleY: 1}, EndX: -50, EndY: 20}
	x, y, w, h := BoundingBox(line)
	if x != -40 || y != 10 || w != 50 || h != 20 {
		t.Errorf("line box = (%g,%g %gx%g), want (-40,10 50x20)", x, y, w, h)
	}

	tri := &Triangle{
		ObjectBase: ObjectBase{X: 0, Y: 0, ScaleX: 1, ScaleY: 1},
		Points:     []Point{{X: -10, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: -15}},
	}
	x, y, w, h = BoundingBox(tri)
	if x != -10 || y != -15 || w != 20 || h != 15 {
		t.Errorf("triangle box = (%g,%g %gx%g), want (-10,-15 20x15)", x, y, w, h)
	}
}

func TestClamp_FittingObjectUntouched(t *testing.T) {
	doc := newTestDocument(t)
	id := doc.Insert(&Circle{Radius: 20, ObjectBase: ObjectBase{X: 100, Y: 100}})

	ClampAll(doc)

	o, _ := doc.Find(id)
	b := o.Base()
	if b.X != 100 || b.Y != 100 || b.ScaleX != 1 || b.ScaleY != 1 {
		t.Errorf("fitting object was modified: %+v", b)
	}
}

func TestClamp_LockedBackgroundExempt(t *testing.T) {
	doc := newTestDocument(t)
	doc.SetBackgroundImage("bg.png", 400, 300)

	bg, _ := doc.backgroundObject()
	wantScale := bg.ScaleX

	ClampAll(doc)

	// Cover scaling overflows the canvas on one axis; clamping must not
	// fight it.
	if bg.ScaleX != wantScale || bg.X != 0 || bg.Y != 0 {
		t.Errorf("locked background was clamped: scale=%g pos=(%g,%g)", bg.ScaleX, bg.X, bg.Y)
	}
}

func TestZOrder_BringToFront(t *testing.T) {
	doc := newTestDocument(t)
	a := doc.Insert(&Rect{Width: 1, Height: 1})
	b := doc.Insert(&Rect{Width: 1, Height: 1})
	c := doc.Insert(&Rect{Width: 1, Height: 1})

	BringToFront(doc, a)

	want := []string{b, c, a}
	for i, o := range doc.Objects() {
		if o.Base().ID != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, o.Base().ID, want[i])
		}
	}
}

func TestZOrder_SendToBack(t *testing.T) {
	doc := newTestDocument(t)
	a := doc.Insert(&Rect{Width: 1, Height: 1})
	b := doc.Insert(&Rect{Width: 1, Height: 1})
	c := doc.Insert(&Rect{Width: 1, Height: 1})

	SendToBack(doc, c)

	want := []string{c, a, b}
	for i, o := range doc.Objects() {
		if o.Base().ID != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, o.Base().ID, want[i])
		}
	}
}

func TestZOrder_UnknownIDIgnored(t *testing.T) {
	doc := newTestDocument(t)
	a := doc.Insert(&Rect{Width: 1, Height: 1})
	BringToFront(doc, "missing")
	SendToBack(doc, "missing")
	if doc.Len() != 1 || doc.Objects()[0].Base().ID != a {
		t.Error("z-order move with unknown id changed the document")
	}
}

func TestZOrder_BackgroundStaysPinned(t *testing.T) {
	doc := newTestDocument(t)
	doc.SetBackgroundImage("bg.png", 400, 300)
	bgID := doc.Objects()[0].Base().ID
	a := doc.Insert(&Rect{Width: 1, Height: 1})

	// Even an explicit move cannot lift the background off the bottom.
	BringToFront(doc, bgID)
	if doc.Objects()[0].Base().ID != bgID {
		t.Error("locked background left index 0 after BringToFront")
	}

	SendToBack(doc, a)
	if doc.Objects()[0].Base().ID != bgID {
		t.Error("locked background displaced by SendToBack of another object")
	}
}

func TestNormalizeBackground_CoverScale(t *testing.T) {
	doc := newTestDocument(t) // 800x600
	doc.SetBackgroundImage("bg.png", 400, 200)

	bg, ok := doc.backgroundObject()
	if !ok {
		t.Fatal("no background object")
	}
	// max(800/400, 600/200) = 3: the image must cover both axes.
	if bg.ScaleX != 3 || bg.ScaleY != 3 {
		t.Errorf("cover scale = %g,%g, want 3,3", bg.ScaleX, bg.ScaleY)
	}
	if bg.X != 0 || bg.Y != 0 {
		t.Errorf("background anchored at (%g,%g), want origin", bg.X, bg.Y)
	}
}
