package app

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"blocknote/internal/logger"
	"blocknote/pkg/notedoc"
)

type fontKey struct {
	size   int
	bold   bool
	italic bool
	scale  int
}

// fontBank caches one face per (size, style, scale). Faces are expensive to
// build and are requested for every text segment on every frame.
type fontBank struct {
	regular    *opentype.Font
	bold       *opentype.Font
	italic     *opentype.Font
	boldItalic *opentype.Font
	cache      map[fontKey]font.Face
}

func newFontBank() fontBank {
	bank := fontBank{cache: map[fontKey]font.Face{}}
	parse := func(name string, ttf []byte) *opentype.Font {
		f, err := opentype.Parse(ttf)
		if err != nil {
			logger.Warnf("parse %s font: %v", name, err)
			return nil
		}
		return f
	}
	bank.regular = parse("regular", goregular.TTF)
	bank.bold = parse("bold", gobold.TTF)
	bank.italic = parse("italic", goitalic.TTF)
	bank.boldItalic = parse("bold italic", gobolditalic.TTF)
	return bank
}

func (b *fontBank) face(size int, bold, italic bool, scale float32) font.Face {
	key := fontKey{size: size, bold: bold, italic: italic, scale: int(math.Round(float64(scale) * 1000))}
	if f, ok := b.cache[key]; ok {
		return f
	}
	var base *opentype.Font
	switch {
	case bold && italic:
		base = b.boldItalic
	case bold:
		base = b.bold
	case italic:
		base = b.italic
	default:
		base = b.regular
	}
	if base == nil {
		return basicfont.Face7x13
	}
	opts := &opentype.FaceOptions{Size: float64(size) * float64(scale), DPI: 72, Hinting: font.HintingFull}
	f, err := opentype.NewFace(base, opts)
	if err != nil {
		return basicfont.Face7x13
	}
	b.cache[key] = f
	return f
}

// runFace picks the face for text with formats at the block font size.
func (b *fontBank) runFace(size int, formats notedoc.FormatSet, scale float32) font.Face {
	return b.face(size, formats.Has(notedoc.Bold), formats.Has(notedoc.Italic), scale)
}

func measureString(face font.Face, s string) int {
	if face == nil || s == "" {
		return 0
	}
	adv := font.MeasureString(face, s)
	return max((int(adv)+32)>>6, 0)
}
