package render

import (
	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an opaque 24-bit colour
type RGB struct {
	R, G, B uint8
}

var (
	RGBBlack = RGB{0, 0, 0}
	RGBWhite = RGB{255, 255, 255}
)

// ParseHex reads "#rrggbb"; malformed input yields black and an error
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGBBlack, err
	}
	return FromColorful(c), nil
}

// FromColorful converts a clamped colorful.Color
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}

// Colorful converts to colorful's float representation
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func clamp(v float64) uint8 {
	return uint8(min(max(v, 0), 255))
}

// div255 is an integer x/255 accurate over the product range of two channels
func div255(x int) int {
	return (x + (x >> 8) + 1) >> 8
}

// channelOp combines one destination channel with one source channel at full strength
type channelOp func(dst, src uint8) uint8

func opAdd(d, s uint8) uint8      { return uint8(min(int(d)+int(s), 255)) }
func opMax(d, s uint8) uint8      { return max(d, s) }
func opScreen(d, s uint8) uint8   { return uint8(255 - div255((255-int(d))*(255-int(s)))) }
func opMultiply(d, s uint8) uint8 { return uint8(div255(int(d) * int(s))) }

func (c RGB) each(src RGB, op channelOp) RGB {
	return RGB{op(c.R, src.R), op(c.G, src.G), op(c.B, src.B)}
}

// mix applies op fully, then fades the result in over c by alpha
func mix(c, src RGB, alpha float64, op channelOp) RGB {
	if alpha <= 0 {
		return c
	}
	out := c.each(src, op)
	if alpha >= 1 {
		return out
	}
	return Blend(c, out, alpha)
}

// Blend is source-over at alpha
func Blend(c, src RGB, alpha float64) RGB {
	switch {
	case alpha >= 1:
		return src
	case alpha <= 0:
		return c
	}
	inv := 1 - alpha
	return RGB{
		R: uint8(float64(src.R)*alpha + float64(c.R)*inv),
		G: uint8(float64(src.G)*alpha + float64(c.G)*inv),
		B: uint8(float64(src.B)*alpha + float64(c.B)*inv),
	}
}

func Add(c, src RGB, alpha float64) RGB    { return mix(c, src, alpha, opAdd) }
func Max(c, src RGB, alpha float64) RGB    { return mix(c, src, alpha, opMax) }
func Screen(c, src RGB, alpha float64) RGB { return mix(c, src, alpha, opScreen) }

// Multiply darkens c by src per channel
func Multiply(c, src RGB) RGB { return c.each(src, opMultiply) }

// Scale multiplies every channel by factor, saturating at white
func Scale(c RGB, factor float64) RGB {
	return RGB{clamp(float64(c.R) * factor), clamp(float64(c.G) * factor), clamp(float64(c.B) * factor)}
}

// Luma is the Rec. 601 gray of c
func Luma(c RGB) RGB {
	y := uint8((int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000)
	return RGB{y, y, y}
}

// Lerp moves from a toward b; t is clamped to [0,1]
func Lerp(a, b RGB, t float64) RGB {
	t = min(max(t, 0), 1)
	step := func(x, y uint8) uint8 { return uint8(float64(x) + t*float64(int(y)-int(x))) }
	return RGB{step(a.R, b.R), step(a.G, b.G), step(a.B, b.B)}
}

// BlendMode selects how entity pixels combine with the raster
type BlendMode uint8

const (
	BlendAlpha BlendMode = iota
	BlendAdd
	BlendMax
	BlendScreen
)

// ParseBlendMode maps a config name onto a mode
func ParseBlendMode(s string) (BlendMode, bool) {
	switch s {
	case "", "alpha", "normal":
		return BlendAlpha, true
	case "add":
		return BlendAdd, true
	case "max", "lighten":
		return BlendMax, true
	case "screen":
		return BlendScreen, true
	}
	return BlendAlpha, false
}

// Apply composites src over c with the mode at alpha
func (m BlendMode) Apply(c, src RGB, alpha float64) RGB {
	switch m {
	case BlendAdd:
		return Add(c, src, alpha)
	case BlendMax:
		return Max(c, src, alpha)
	case BlendScreen:
		return Screen(c, src, alpha)
	}
	return Blend(c, src, alpha)
}
