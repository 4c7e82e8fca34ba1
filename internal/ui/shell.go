package ui

import "blocknote/internal/render"

type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.W && y < r.Y+r.H
}

// Layout is the window split into a note list on the left, a toolbar and
// page on the right, and a status bar along the bottom.
type Layout struct {
	Scale   float32
	Sidebar Rect
	Toolbar Rect
	Canvas  Rect
	Page    Rect
	Content Rect
	Status  Rect
}

// Dp converts a density-independent size to pixels at the layout scale.
func (l Layout) Dp(v int) int { return int(float32(v) * l.Scale) }

func ComputeLayout(w, h int, theme Theme, scale float32) Layout {
	if scale <= 0 {
		scale = 1
	}
	dp := func(v int) int { return int(float32(v) * scale) }

	sidebarW := dp(theme.SidebarWidthDp)
	if sidebarW > w/3 {
		sidebarW = w / 3
	}
	toolbarH := dp(theme.ToolbarHeightDp)
	statusH := dp(theme.StatusHeightDp)
	margin := dp(theme.PageMarginDp)

	mainX := sidebarW
	mainW := max(w-sidebarW, 0)
	canvasY := toolbarH
	canvasH := max(h-toolbarH-statusH, 0)

	pageW := min(mainW-margin*2, dp(860))
	pageW = max(pageW, dp(280))
	pageH := max(canvasH-margin*2, dp(160))
	pageX := mainX + (mainW-pageW)/2
	pageY := canvasY + margin
	pad := dp(20)

	return Layout{
		Scale:   scale,
		Sidebar: Rect{X: 0, Y: 0, W: sidebarW, H: max(h-statusH, 0)},
		Toolbar: Rect{X: mainX, Y: 0, W: mainW, H: toolbarH},
		Canvas:  Rect{X: mainX, Y: canvasY, W: mainW, H: canvasH},
		Page:    Rect{X: pageX, Y: pageY, W: pageW, H: pageH},
		Content: Rect{X: pageX + pad, Y: pageY + pad, W: max(pageW-pad*2, dp(100)), H: max(pageH-pad*2, dp(100))},
		Status:  Rect{X: 0, Y: h - statusH, W: w, H: statusH},
	}
}

// DrawShell paints the window chrome for layout.
func DrawShell(fb *render.FrameBuffer, theme Theme, layout Layout) {
	fb.Clear(theme.AppBackground)

	s := layout.Sidebar
	fb.FillRect(s.X, s.Y, s.W, s.H, theme.Sidebar)
	fb.FillRect(s.X+s.W-1, s.Y, 1, s.H, theme.Border)

	t := layout.Toolbar
	fb.FillRect(t.X, t.Y, t.W, t.H, theme.Toolbar)
	fb.FillRect(t.X, t.Y+t.H-1, t.W, 1, theme.Border)

	p := layout.Page
	fb.FillRect(p.X+2, p.Y+2, p.W, p.H, theme.Shadow)
	fb.FillRect(p.X, p.Y, p.W, p.H, theme.Page)
	fb.StrokeRect(p.X, p.Y, p.W, p.H, 1, theme.Border)
	fb.FillRect(p.X, p.Y, p.W, max(layout.Dp(3), 1), theme.Accent)

	st := layout.Status
	fb.FillRect(st.X, st.Y, st.W, st.H, theme.StatusBar)
	fb.StrokeRect(st.X, st.Y, st.W, st.H, 1, theme.Border)
}
