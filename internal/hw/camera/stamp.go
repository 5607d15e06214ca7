package camera

import (
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TimestampLayout is the format of the timestamp drawn on every frame.
const TimestampLayout = "2006/01/02 15:04:05"

var stampColor = color.RGBA{R: 250, G: 250, B: 250, A: 255}

// StampOrigin returns the text baseline origin: 2% from the left edge, 98% down.
func StampOrigin(bounds image.Rectangle) image.Point {
	return image.Point{
		X: bounds.Min.X + int(0.02*float64(bounds.Dx())),
		Y: bounds.Min.Y + int(0.98*float64(bounds.Dy())),
	}
}

// Stamp draws t in the bottom-left corner of dst.
func Stamp(dst draw.Image, t time.Time) {
	origin := StampOrigin(dst.Bounds())
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(stampColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(origin.X, origin.Y),
	}
	d.DrawString(t.Format(TimestampLayout))
}
