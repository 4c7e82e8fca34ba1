package ui

import (
	"testing"

	"blocknote/internal/render"
)

func TestComputeLayoutPartitionsWindow(t *testing.T) {
	theme := DefaultTheme()
	l := ComputeLayout(1280, 800, theme, 1)
	if l.Sidebar.W != theme.SidebarWidthDp {
		t.Fatalf("unexpected sidebar width: %d", l.Sidebar.W)
	}
	if l.Toolbar.X != l.Sidebar.W || l.Toolbar.W != 1280-l.Sidebar.W {
		t.Fatalf("toolbar does not follow sidebar: %+v", l.Toolbar)
	}
	if l.Status.Y+l.Status.H != 800 {
		t.Fatalf("status bar not at bottom: %+v", l.Status)
	}
	if !l.Page.Contains(l.Content.X, l.Content.Y) {
		t.Fatalf("content outside page: %+v %+v", l.Content, l.Page)
	}
	if l.Page.X < l.Canvas.X || l.Page.X+l.Page.W > l.Canvas.X+l.Canvas.W {
		t.Fatalf("page not centred in canvas: %+v %+v", l.Page, l.Canvas)
	}
}

func TestComputeLayoutScales(t *testing.T) {
	theme := DefaultTheme()
	l := ComputeLayout(3000, 1600, theme, 2)
	if l.Toolbar.H != theme.ToolbarHeightDp*2 || l.Dp(10) != 20 {
		t.Fatalf("layout not scaled: %+v", l.Toolbar)
	}
	narrow := ComputeLayout(600, 400, theme, 1)
	if narrow.Sidebar.W != 200 {
		t.Fatalf("sidebar should cap at a third of the window, got %d", narrow.Sidebar.W)
	}
}

func TestDrawShellPaintsRegions(t *testing.T) {
	theme := DefaultTheme()
	fb := render.NewFrameBuffer(1000, 700)
	l := ComputeLayout(fb.W, fb.H, theme, 1)
	DrawShell(fb, theme, l)
	if got := fb.At(l.Sidebar.X+5, l.Sidebar.Y+5); got != theme.Sidebar {
		t.Fatalf("unexpected sidebar pixel: %v", got)
	}
	if got := fb.At(l.Content.X+5, l.Content.Y+5); got != theme.Page {
		t.Fatalf("unexpected page pixel: %v", got)
	}
}
