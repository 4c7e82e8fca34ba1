// Package app is the graphical editing surface. It renders the open note
// block by block, turns keyboard and mouse input into session calls and
// redraws the caret from the session's logical selection after every change.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"

	"blocknote/internal/config"
	"blocknote/internal/layout"
	"blocknote/internal/logger"
	"blocknote/internal/render"
	"blocknote/internal/ui"
	"blocknote/internal/workspace"
	"blocknote/pkg/notedoc"
)

type Options struct {
	Config    config.Config
	Workspace *workspace.Workspace
}

type button struct {
	id     string
	label  string
	r      ui.Rect
	active bool
}

type noteRow struct {
	id string
	r  ui.Rect
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	theme ui.Theme
	cfg   config.Config
	ws    *workspace.Workspace

	frameBuffer *render.FrameBuffer
	canvas      *ebiten.Image
	pixel       *ebiten.Image
	fonts       fontBank

	uiScales   []float32
	uiScaleIdx int
	status     string
	frameTick  uint64

	shell     ui.Layout
	doc       *layout.Document
	buttons   []button
	rows      []noteRow
	search    ui.Rect
	sizeLabel ui.Rect
	scrollY   float64
	maxY      float64
	showHelp  bool

	dragSelecting bool
	dragBlock     int
	dragAnchor    int

	prompt *prompt

	screenW int
	screenH int
}

func New(opts Options) (*App, error) {
	if opts.Workspace == nil {
		return nil, errors.New("app: workspace is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)
	return &App{
		ctx:      ctx,
		cancel:   cancel,
		theme:    ui.DefaultTheme(),
		cfg:      opts.Config,
		ws:       opts.Workspace,
		pixel:    pixel,
		fonts:    newFontBank(),
		uiScales: []float32{1.0, 1.25, 1.5, 2.0},
		status:   "Ready",
	}, nil
}

func (a *App) Run() error {
	ebiten.SetWindowTitle("Blocknote")
	ebiten.SetWindowSize(1280, 800)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(720, 480, -1, -1)
	ebiten.SetWindowClosingHandled(true)
	defer a.cancel()
	if err := ebiten.RunGame(a); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game loop: %w", err)
	}
	return nil
}

func (a *App) Update() error {
	a.frameTick++
	if ebiten.IsWindowBeingClosed() {
		return a.quit()
	}
	if err := a.ws.Tick(a.ctx); err != nil {
		a.fail("Autosave", err)
	}
	if a.ws.Session() == nil {
		return nil
	}

	w, h := a.viewport()
	a.shell = ui.ComputeLayout(w, h, a.theme, a.scale())
	a.rebuild()
	a.layoutChrome()

	switch {
	case a.prompt != nil:
		a.handlePromptInput()
	case a.showHelp:
		a.handleHelpInput()
	default:
		a.handleScroll()
		a.handleMouse()
		a.handleShortcuts()
		a.handleNavigation()
		a.handleEditing()
	}

	a.rebuild()
	a.ensureCaretVisible()
	a.layoutChrome()
	return nil
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.screenW = max(outsideWidth, 720)
	a.screenH = max(outsideHeight, 480)
	return a.screenW, a.screenH
}

func (a *App) viewport() (int, int) {
	if a.screenW > 0 && a.screenH > 0 {
		return a.screenW, a.screenH
	}
	w, h := ebiten.WindowSize()
	if w <= 0 || h <= 0 {
		return 1280, 800
	}
	return w, h
}

func (a *App) scale() float32 { return a.uiScales[a.uiScaleIdx] }

func (a *App) bumpUIScale(delta int) {
	a.uiScaleIdx = min(max(a.uiScaleIdx+delta, 0), len(a.uiScales)-1)
	a.status = fmt.Sprintf("UI scale %.0f%%", a.scale()*100)
}

// rebuild lays the note out again from the session. Every frame renders
// fresh trees, so view positions are only ever taken from a.doc.
func (a *App) rebuild() {
	sess := a.ws.Session()
	if sess == nil {
		return
	}
	scale := a.scale()
	a.doc = layout.Build(sess.Sequence(), a.ws.Marks, layout.Options{
		Width:    a.shell.Content.W,
		BlockGap: a.shell.Dp(a.theme.BlockGapDp),
		LineGap:  a.shell.Dp(4),
		Face: func(size int, formats notedoc.FormatSet) font.Face {
			return a.fonts.runFace(size, formats, scale)
		},
	})
	a.maxY = max(float64(a.doc.Height-a.shell.Content.H+a.shell.Dp(24)), 0)
	a.clampScroll()
}

func (a *App) clampScroll() {
	a.scrollY = min(max(a.scrollY, 0), a.maxY)
}

func (a *App) ensureCaretVisible() {
	if a.doc == nil || a.dragSelecting {
		return
	}
	sess := a.ws.Session()
	_, y, h := a.doc.OffsetPoint(sess.CurrentIndex(), sess.Caret())
	top, bottom := float64(y), float64(y+h)
	view := float64(a.shell.Content.H)
	if top < a.scrollY {
		a.scrollY = top
	}
	if bottom > a.scrollY+view {
		a.scrollY = bottom - view
	}
	a.clampScroll()
}

func (a *App) quit() error {
	if err := a.ws.Close(context.Background()); err != nil {
		logger.Errorf("save on exit: %v", err)
	}
	a.cancel()
	return ebiten.Termination
}

// fail reports err in the status bar and the log.
func (a *App) fail(op string, err error) {
	a.status = op + " failed: " + err.Error()
	logger.Errorf("%s: %v", op, err)
}
