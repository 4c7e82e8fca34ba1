package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blocknote/internal/app"
	"blocknote/internal/config"
	"blocknote/internal/editor"
	"blocknote/internal/glossary"
	"blocknote/internal/logger"
	"blocknote/internal/store"
	"blocknote/internal/workspace"
	"blocknote/pkg/notedoc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "blocknote: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.ResolvePath(), "path to config.toml")
	noteID := flag.String("note", "", "open the note with this id")
	newNote := flag.Bool("new", false, "start with a new note")
	list := flag.Bool("list", false, "print the stored notes and exit")
	export := flag.String("export", "", "write the note given by -note to this file and exit")
	password := flag.String("password", "", "encrypt -export output with this password")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, err := config.LoadOrCreate(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := logger.InitFile(logger.ParseLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Infof("using %s store at %s", cfg.Store.Driver, cfg.Store.Path)

	ctx := context.Background()
	if *list {
		return printNotes(ctx, st)
	}

	ws, err := workspace.New(workspace.Options{
		Store:    st,
		Glossary: glossary.NewMockService(),
		Editor: editor.Options{
			IndentText:   cfg.Editor.IndentText,
			HistoryLimit: cfg.Editor.HistoryLimit,
			FontSize:     cfg.Editor.FontSize,
			Align:        notedoc.Alignment(cfg.Editor.Alignment),
		},
	})
	if err != nil {
		return err
	}

	if *export != "" {
		if *noteID == "" {
			return errors.New("-export needs -note")
		}
		if err := ws.Start(ctx, *noteID); err != nil {
			return err
		}
		opts := notedoc.SaveOptions{
			Compression: cfg.Export.Compression,
			Encryption:  notedoc.EncryptionOptions{Enabled: *password != "", Password: *password},
		}
		if err := ws.Export(*export, opts); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", ws.Note().Title, filepath.Clean(*export))
		return nil
	}

	if *newNote {
		err = ws.NewNote(ctx)
	} else {
		err = ws.Start(ctx, *noteID)
	}
	if err != nil {
		return err
	}

	a, err := app.New(app.Options{Config: cfg, Workspace: ws})
	if err != nil {
		return err
	}
	return a.Run()
}

func printNotes(ctx context.Context, st store.Store) error {
	notes, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("no notes")
		return nil
	}
	for _, n := range notes {
		pin := " "
		if n.Pinned {
			pin = "*"
		}
		fmt.Printf("%s %s  %-24s %s\n", pin, n.ID, n.Title, strings.TrimSpace(store.Summary(n, 48)))
	}
	return nil
}
