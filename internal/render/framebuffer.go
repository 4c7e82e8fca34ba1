// Package render paints the static chrome of the editor window into a CPU
// pixel buffer that is uploaded to the GPU once per frame.
package render

import "image/color"

type FrameBuffer struct {
	W      int
	H      int
	Pixels []uint8 // RGBA
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &FrameBuffer{W: w, H: h, Pixels: make([]uint8, w*h*4)}
}

// Resize reallocates the buffer when the size changed and reports whether it
// did.
func (fb *FrameBuffer) Resize(w, h int) bool {
	if w <= 0 || h <= 0 || (w == fb.W && h == fb.H) {
		return false
	}
	fb.W, fb.H = w, h
	fb.Pixels = make([]uint8, w*h*4)
	return true
}

func (fb *FrameBuffer) Clear(c color.RGBA) {
	fb.FillRect(0, 0, fb.W, fb.H, c)
}

func (fb *FrameBuffer) FillRect(x, y, w, h int, c color.RGBA) {
	x, y, w, h, ok := fb.clip(x, y, w, h)
	if !ok {
		return
	}
	for row := y; row < y+h; row++ {
		off := (row*fb.W + x) * 4
		for i := off; i < off+w*4; i += 4 {
			fb.Pixels[i+0] = c.R
			fb.Pixels[i+1] = c.G
			fb.Pixels[i+2] = c.B
			fb.Pixels[i+3] = c.A
		}
	}
}

// BlendRect draws c over the existing pixels using c.A as coverage.
func (fb *FrameBuffer) BlendRect(x, y, w, h int, c color.RGBA) {
	if c.A == 0xFF {
		fb.FillRect(x, y, w, h, c)
		return
	}
	x, y, w, h, ok := fb.clip(x, y, w, h)
	if !ok || c.A == 0 {
		return
	}
	a := uint32(c.A)
	mix := func(dst uint8, src uint8) uint8 {
		return uint8((uint32(src)*a + uint32(dst)*(255-a)) / 255)
	}
	for row := y; row < y+h; row++ {
		off := (row*fb.W + x) * 4
		for i := off; i < off+w*4; i += 4 {
			fb.Pixels[i+0] = mix(fb.Pixels[i+0], c.R)
			fb.Pixels[i+1] = mix(fb.Pixels[i+1], c.G)
			fb.Pixels[i+2] = mix(fb.Pixels[i+2], c.B)
			fb.Pixels[i+3] = 0xFF
		}
	}
}

func (fb *FrameBuffer) StrokeRect(x, y, w, h, line int, c color.RGBA) {
	if line <= 0 {
		line = 1
	}
	fb.FillRect(x, y, w, line, c)
	fb.FillRect(x, y+h-line, w, line, c)
	fb.FillRect(x, y, line, h, c)
	fb.FillRect(x+w-line, y, line, h, c)
}

// At returns the pixel at (x, y); out-of-range reads return zero.
func (fb *FrameBuffer) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= fb.W || y >= fb.H {
		return color.RGBA{}
	}
	i := (y*fb.W + x) * 4
	return color.RGBA{R: fb.Pixels[i], G: fb.Pixels[i+1], B: fb.Pixels[i+2], A: fb.Pixels[i+3]}
}

func (fb *FrameBuffer) clip(x, y, w, h int) (int, int, int, int, bool) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > fb.W {
		w = fb.W - x
	}
	if y+h > fb.H {
		h = fb.H - y
	}
	return x, y, w, h, w > 0 && h > 0
}
