package ui

import "image/color"

type Theme struct {
	AppBackground   color.RGBA
	Sidebar         color.RGBA
	SidebarActive   color.RGBA
	Toolbar         color.RGBA
	ToolbarActive   color.RGBA
	Page            color.RGBA
	Border          color.RGBA
	StatusBar       color.RGBA
	Accent          color.RGBA
	Shadow          color.RGBA
	Text            color.RGBA
	MutedText       color.RGBA
	Selection       color.RGBA
	Caret           color.RGBA
	TermHighlight   color.RGBA
	Overlay         color.RGBA
	SidebarWidthDp  int
	ToolbarHeightDp int
	StatusHeightDp  int
	PageMarginDp    int
	BlockGapDp      int
}

func DefaultTheme() Theme {
	return Theme{
		AppBackground:   color.RGBA{0xF3, 0xF5, 0xF8, 0xFF},
		Sidebar:         color.RGBA{0xEC, 0xEF, 0xF4, 0xFF},
		SidebarActive:   color.RGBA{0xD5, 0xE1, 0xF5, 0xFF},
		Toolbar:         color.RGBA{0xF7, 0xF9, 0xFC, 0xFF},
		ToolbarActive:   color.RGBA{0xCF, 0xDE, 0xF6, 0xFF},
		Page:            color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Border:          color.RGBA{0xB2, 0xBF, 0xD0, 0xFF},
		StatusBar:       color.RGBA{0xEA, 0xEF, 0xF6, 0xFF},
		Accent:          color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Shadow:          color.RGBA{0xC8, 0xCF, 0xDB, 0xFF},
		Text:            color.RGBA{0x20, 0x20, 0x20, 0xFF},
		MutedText:       color.RGBA{0x5A, 0x66, 0x78, 0xFF},
		Selection:       color.RGBA{0xBF, 0xD6, 0xFF, 0xFF},
		Caret:           color.RGBA{0x1F, 0x3F, 0x75, 0xFF},
		TermHighlight:   color.RGBA{0xFF, 0xF4, 0xA8, 0xFF},
		Overlay:         color.RGBA{0x10, 0x18, 0x28, 0x60},
		SidebarWidthDp:  240,
		ToolbarHeightDp: 40,
		StatusHeightDp:  26,
		PageMarginDp:    24,
		BlockGapDp:      8,
	}
}
