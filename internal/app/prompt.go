package app

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sqweek/dialog"

	"blocknote/internal/logger"
	"blocknote/pkg/notedoc"
)

const (
	maxPromptInput = 128
	fileExtension  = "bnote"
)

// prompt is a one-line modal text input. submit returns an error message to
// keep the prompt open, or "" to close it.
type prompt struct {
	title  string
	label  string
	input  string
	masked bool
	err    string
	// live is called after every edit of input.
	live   func(string)
	submit func(string) string
	cancel func()
}

func (a *App) handlePromptInput() {
	p := a.prompt
	ctrl, _ := modifiers()
	changed := false
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if p.cancel != nil {
			p.cancel()
		}
		a.prompt = nil
		return
	}
	if repeated(ebiten.KeyBackspace) && p.input != "" {
		_, size := utf8.DecodeLastRuneInString(p.input)
		p.input = p.input[:len(p.input)-max(size, 1)]
		changed = true
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		if clip, err := clipboard.ReadAll(); err == nil && clip != "" {
			p.input = clampInput(p.input + strings.ReplaceAll(clip, "\n", " "))
			changed = true
		}
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x20 || r == 0x7F || !utf8.ValidRune(r) {
			continue
		}
		p.input = clampInput(p.input + string(r))
		changed = true
	}
	if changed {
		p.err = ""
		if p.live != nil {
			p.live(p.input)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyKPEnter) {
		msg := ""
		if p.submit != nil {
			msg = p.submit(p.input)
		}
		if msg != "" {
			p.err = msg
			return
		}
		if a.prompt == p {
			a.prompt = nil
		}
	}
}

func clampInput(s string) string {
	if utf8.RuneCountInString(s) <= maxPromptInput {
		return s
	}
	return string([]rune(s)[:maxPromptInput])
}

func (a *App) handleHelpInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyF1) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		a.showHelp = false
	}
}

func (a *App) openSearch() {
	a.prompt = &prompt{
		title: "Search notes",
		label: "Matches titles and note text",
		input: a.ws.Query(),
		live: func(q string) {
			if err := a.ws.SetQuery(a.ctx, q); err != nil {
				a.fail("Search", err)
			}
		},
		submit: func(q string) string {
			if n := len(a.ws.Notes()); n > 0 {
				a.status = "Showing " + plural(n, "note")
			} else {
				a.status = "No notes match " + q
			}
			return ""
		},
		cancel: func() {
			if err := a.ws.SetQuery(a.ctx, ""); err != nil {
				a.fail("Search", err)
			}
		},
	}
}

func (a *App) openRename() {
	note := a.ws.Note()
	if note == nil {
		return
	}
	a.prompt = &prompt{
		title: "Rename note",
		label: "Title",
		input: note.Title,
		submit: func(title string) string {
			if err := a.ws.Rename(a.ctx, title); err != nil {
				a.fail("Rename", err)
				return err.Error()
			}
			a.status = "Renamed to " + a.ws.Note().Title
			return ""
		},
	}
}

func (a *App) deleteNote() {
	note := a.ws.Note()
	if note == nil {
		return
	}
	if !dialog.Message("Delete %q? This cannot be undone.", note.Title).Title("Delete note").YesNo() {
		return
	}
	if err := a.ws.DeleteCurrent(a.ctx); err != nil {
		a.fail("Delete", err)
		return
	}
	a.scrollY = 0
	a.status = "Deleted " + note.Title
}

func (a *App) exportNote() {
	note := a.ws.Note()
	if note == nil {
		return
	}
	path, err := dialog.File().Filter("Blocknote files", fileExtension).Title("Export note").Save()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			a.fail("Export", err)
		}
		return
	}
	if filepath.Ext(path) == "" {
		path += "." + fileExtension
	}
	export := func(password string) string {
		opts := notedoc.SaveOptions{
			Compression: a.cfg.Export.Compression,
			Encryption:  notedoc.EncryptionOptions{Enabled: password != "", Password: password},
		}
		if err := a.ws.Export(path, opts); err != nil {
			a.fail("Export", err)
			dialog.Message("%v", err).Title("Export failed").Error()
			return ""
		}
		a.status = "Exported " + filepath.Base(path)
		return ""
	}
	if !a.cfg.Export.Encryption {
		export("")
		return
	}
	a.prompt = &prompt{
		title:  "Encrypt export",
		label:  "Password for " + filepath.Base(path),
		masked: true,
		submit: func(pw string) string {
			if strings.TrimSpace(pw) == "" {
				return "Enter a password."
			}
			return export(pw)
		},
	}
}

func (a *App) importNote() {
	path, err := dialog.File().Filter("Blocknote files", fileExtension).Title("Import note").Load()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			a.fail("Import", err)
		}
		return
	}
	path = filepath.Clean(path)
	info, err := notedoc.InspectEnvelope(path)
	if err != nil {
		a.fail("Import", err)
		return
	}
	logger.Debugf("import %s: wrapped=%v compressed=%v encrypted=%v", path, info.Wrapped, info.Compressed, info.Encrypted)
	load := func(password string) string {
		err := a.ws.Import(a.ctx, path, notedoc.LoadOptions{Password: password})
		switch {
		case errors.Is(err, notedoc.ErrInvalidPassword), errors.Is(err, notedoc.ErrPasswordRequired):
			return "Incorrect password. Try again."
		case err != nil:
			a.fail("Import", err)
			dialog.Message("%v", err).Title("Import failed").Error()
			return ""
		}
		a.scrollY = 0
		a.status = "Imported " + filepath.Base(path)
		return ""
	}
	if !info.Encrypted {
		load("")
		return
	}
	a.prompt = &prompt{
		title:  "Password required",
		label:  "Enter the password for " + filepath.Base(path),
		masked: true,
		submit: load,
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
