package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/config"
	"github.com/bible365/bible365/internal/ledger"
	"github.com/bible365/bible365/internal/logging"
	"github.com/bible365/bible365/internal/model"
	"github.com/bible365/bible365/internal/session"
	"github.com/bible365/bible365/internal/store"
	"github.com/bible365/bible365/internal/upload"
)

// app wires the collaborators shared by every command.
type app struct {
	cfg    model.Config
	log    *slog.Logger
	bible  *bible.Bible
	store  *store.Store
	ledger *ledger.Ledger
	upload *upload.Client
}

// openApp loads config, logging, the dataset and the ledger. When
// requireBible is false a missing dataset only disables verse totals.
func openApp(ctx context.Context, cmd *cobra.Command, requireBible bool) (*app, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(os.Stderr, globalLogLevel, globalLogFormat)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger}

	b, err := bible.Load(cfg.BiblePath)
	switch {
	case err == nil:
		a.bible = b
	case requireBible:
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("verse dataset not found at %s (set --bible or reading.bible-path)", cfg.BiblePath)
		}
		return nil, fmt.Errorf("failed to load verse dataset: %w", err)
	default:
		logger.Warn("verse dataset unavailable, totals unknown", "path", cfg.BiblePath, "err", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	a.store = st

	var meta ledger.VerseCounter
	if a.bible != nil {
		meta = a.bible.Metadata()
	}
	l, err := ledger.New(ctx, st, meta, ledger.Options{UserID: cfg.User, Logger: logger})
	if err != nil {
		a.close()
		return nil, err
	}
	a.ledger = l

	if cfg.UploadEnabled {
		client, err := upload.New(upload.Options{
			BaseURL: cfg.UploadBaseURL,
			Token:   cfg.UploadToken,
			UserID:  cfg.User,
			Logger:  logger,
		})
		if err != nil {
			logger.Warn("uploads disabled", "err", err)
		} else {
			a.upload = client
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.upload != nil {
		a.upload.Wait()
	}
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
}

func (a *app) newSession(mode model.Mode) *session.Session {
	opts := session.Options{
		Mode:      mode,
		Threshold: a.cfg.Threshold,
		LastRead:  a.store,
		Logger:    a.log,
	}
	if a.upload != nil {
		opts.Notifier = a.upload
	}
	return session.New(a.ledger, a.bible, opts)
}

// startVerse picks the verse to open: an explicit position, the last read
// verse of mode when resuming, or the first verse of the category.
func (a *app) startVerse(ctx context.Context, mode model.Mode, args []string) (model.Verse, error) {
	if len(args) > 0 {
		pos, err := parsePosition(args)
		if err != nil {
			return model.Verse{}, err
		}
		v, ok := a.bible.Verse(pos.book, pos.chapter, pos.verse)
		if !ok {
			return model.Verse{}, fmt.Errorf("verse %s %d:%d not in dataset", pos.book, pos.chapter, pos.verse)
		}
		return v, nil
	}
	if a.cfg.ResumeFromLastRead {
		lr, ok, err := a.store.LastRead(ctx, model.ModeKey(mode))
		if err != nil {
			a.log.Warn("failed to load last read position", "err", err)
		} else if ok {
			if v, found := a.bible.VerseByID(lr.VerseID); found {
				return v, nil
			}
		}
	}
	category, _ := bible.ParseCategory(a.cfg.DefaultBookCategory)
	for _, b := range bible.FilterBooks(category) {
		if v, ok := a.bible.First(b.Code); ok {
			return v, nil
		}
	}
	return model.Verse{}, fmt.Errorf("no verses found for category %q", category)
}

// knownModes lists stored modes plus the configured one.
func (a *app) knownModes(current model.Mode) []model.Mode {
	modes := []model.Mode{current}
	seen := map[string]bool{model.ModeKey(current): true}
	for _, key := range a.ledger.Modes() {
		if seen[key] {
			continue
		}
		mode, err := model.ParseModeKey(key)
		if err != nil {
			a.log.Warn("skipping unknown mode key", "key", key)
			continue
		}
		seen[key] = true
		modes = append(modes, mode)
	}
	return modes
}
