package overlay

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"
)

const (
	pulsingSize   = 200
	pulsingPeriod = time.Second
)

var (
	pulseOuterColor = color.NRGBA{R: 36, G: 198, B: 255}
	pulseInnerColor = color.NRGBA{R: 36, G: 98, B: 234, A: 255}
	pulseStroke     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Frame is the geometry of the pulsing dot at phase T in [0, 1).
type Frame struct {
	T           float64
	InnerRadius float64
	OuterRadius float64
	OuterAlpha  float64
	LineWidth   float64
}

// FrameAt returns the dot geometry for phase t. The outer ring grows from
// the inner radius while fading out, and the inner stroke thins.
func FrameAt(t float64) Frame {
	inner := pulsingSize / 2 * 0.3
	return Frame{
		T:           t,
		InnerRadius: inner,
		OuterRadius: pulsingSize/2*0.7*t + inner,
		OuterAlpha:  1 - t,
		LineWidth:   2 + 4*(1-t),
	}
}

// PulsingDot is an animated StyleImage. Each Render draws the frame for
// the current clock phase and asks the map to repaint.
type PulsingDot struct {
	repaint func()
	clock   func() time.Time
	start   time.Time

	mu  sync.Mutex
	img *image.NRGBA
}

// NewPulsingDot creates a dot that calls repaint after every frame.
func NewPulsingDot(repaint func(), clock func() time.Time) *PulsingDot {
	if clock == nil {
		clock = time.Now
	}
	return &PulsingDot{
		repaint: repaint,
		clock:   clock,
		start:   clock(),
		img:     image.NewNRGBA(image.Rect(0, 0, pulsingSize, pulsingSize)),
	}
}

func (d *PulsingDot) Width() int  { return pulsingSize }
func (d *PulsingDot) Height() int { return pulsingSize }

// Data returns a copy of the last rendered frame.
func (d *PulsingDot) Data() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.img.Pix...)
}

// Phase returns the position within the current period.
func (d *PulsingDot) Phase() float64 {
	elapsed := d.clock().Sub(d.start) % pulsingPeriod
	if elapsed < 0 {
		elapsed += pulsingPeriod
	}
	return float64(elapsed) / float64(pulsingPeriod)
}

// Render draws the current frame and requests a repaint.
func (d *PulsingDot) Render() bool {
	frame := FrameAt(d.Phase())

	d.mu.Lock()
	drawFrame(d.img, frame)
	d.mu.Unlock()

	if d.repaint != nil {
		d.repaint()
	}
	return true
}

// drawFrame paints f into img: the fading outer disc, then the opaque
// inner disc with a white stroke centred on its edge.
func drawFrame(img *image.NRGBA, f Frame) {
	b := img.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	half := f.LineWidth / 2
	outer := pulseOuterColor
	outer.A = uint8(math.Round(255 * f.OuterAlpha))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)

			var c color.NRGBA
			if d <= f.OuterRadius {
				c = outer
			}
			if d <= f.InnerRadius {
				c = pulseInnerColor
			}
			if math.Abs(d-f.InnerRadius) <= half {
				c = pulseStroke
			}
			img.SetNRGBA(x, y, c)
		}
	}
}
