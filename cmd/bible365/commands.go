package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/model"
	"github.com/bible365/bible365/internal/progressui"
	"github.com/bible365/bible365/internal/report"
	"github.com/bible365/bible365/internal/session"
	"github.com/bible365/bible365/internal/speech"
	"github.com/bible365/bible365/internal/tui"
)

type position struct {
	book    string
	chapter int
	verse   int
}

// parsePosition reads "BOOK [CHAPTER [VERSE]]". BOOK is a code or a Korean
// book name.
func parsePosition(args []string) (position, error) {
	if len(args) == 0 || len(args) > 3 {
		return position{}, fmt.Errorf("expected BOOK [CHAPTER [VERSE]]")
	}
	code, ok := resolveBook(args[0])
	if !ok {
		return position{}, fmt.Errorf("unknown book %q", args[0])
	}
	pos := position{book: code, chapter: 1, verse: 1}
	nums := []*int{&pos.chapter, &pos.verse}
	for i, raw := range args[1:] {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return position{}, fmt.Errorf("invalid number %q", raw)
		}
		*nums[i] = n
	}
	return pos, nil
}

func resolveBook(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if b, ok := bible.BookByCode(s); ok {
		return b.Code, true
	}
	for _, b := range bible.Books {
		if b.NameKo == s {
			return b.Code, true
		}
	}
	return "", false
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read [BOOK [CHAPTER [VERSE]]]",
		Short: "Read verses in the terminal UI",
		Args:  cobra.MaximumNArgs(3),
		RunE:  runReadCmd,
	}
	cmd.Flags().StringVar(&readSpeechURL, "speech-url", "", "websocket url of a speech recognizer")
	return cmd
}

func runReadCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	mode := modeFromConfig(a.cfg)
	v, err := a.startVerse(ctx, mode, args)
	if err != nil {
		return err
	}
	sess := a.newSession(mode)
	if err := sess.Open(ctx, v); err != nil {
		return err
	}

	var events chan speech.Event
	if readSpeechURL != "" {
		src, err := speech.DialWebsocket(ctx, readSpeechURL)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := src.Close(); cerr != nil {
				a.log.Debug("recognizer close", "err", cerr)
			}
		}()
		events = make(chan speech.Event)
		go func() {
			defer close(events)
			if err := src.Run(ctx, events); err != nil {
				a.log.Warn("speech source stopped", "err", err)
			}
		}()
	}

	program := tea.NewProgram(tui.NewModel(ctx, sess, events), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen [BOOK [CHAPTER [VERSE]]]",
		Short: "Match speech events from stdin or a recognizer without the UI",
		Long: "Reads one JSON event per line ({\"text\":...,\"isFinal\":...}) from stdin, " +
			"or frames from --speech-url, and prints progress as verses complete.",
		Args: cobra.MaximumNArgs(3),
		RunE: runListenCmd,
	}
	cmd.Flags().StringVar(&listenSpeechURL, "speech-url", "", "websocket url of a speech recognizer (default: stdin)")
	cmd.Flags().BoolVar(&listenAdvance, "advance", true, "open the next verse when the current one completes")
	return cmd
}

func runListenCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	mode := modeFromConfig(a.cfg)
	v, err := a.startVerse(ctx, mode, args)
	if err != nil {
		return err
	}
	sess := a.newSession(mode)
	if err := sess.Open(ctx, v); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printVerse(out, sess)

	events := make(chan speech.Event)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		if listenSpeechURL == "" {
			return speech.ReadJSONLines(gctx, cmd.InOrStdin(), events)
		}
		src, err := speech.DialWebsocket(gctx, listenSpeechURL)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := src.Close(); cerr != nil {
				a.log.Debug("recognizer close", "err", cerr)
			}
		}()
		return src.Run(gctx, events)
	})
	g.Go(func() error {
		for ev := range events {
			if err := listenStep(gctx, out, sess, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func listenStep(ctx context.Context, out io.Writer, sess *session.Session, ev speech.Event) error {
	res, err := sess.HandleEvent(ctx, ev)
	if err != nil {
		logErrf("%v\n", err)
		return nil
	}
	if res.Added > 0 {
		fmt.Fprintf(out, "  %s %3.0f%%\n", sess.Verse().ID, sess.VerseProgress()*100)
	}
	if res.Update.BookCompleted {
		book := sess.Verse().BookCode
		fmt.Fprintf(out, "%s 완독 (%d회)\n", bible.LocalizedName(book, book), res.Update.BookCompletionCount)
	}
	if sess.RoundCompleted() {
		fmt.Fprintf(out, "성경 %d독 완료! 새 회차를 시작합니다.\n", sess.GlobalCompletionCount())
		if err := sess.AcknowledgeRound(ctx); err != nil {
			return err
		}
	}
	if res.Completed && listenAdvance {
		ok, err := sess.Next(ctx)
		if err != nil {
			return err
		}
		if ok {
			printVerse(out, sess)
		}
	}
	return nil
}

func printVerse(out io.Writer, sess *session.Session) {
	v := sess.Verse()
	fmt.Fprintf(out, "%s %d:%d %s\n", bible.LocalizedName(v.BookCode, v.BookCode), v.Chapter, v.Number, v.Text)
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show reading progress",
		Args:  cobra.NoArgs,
		RunE:  runProgressCmd,
	}
	cmd.Flags().BoolVar(&progressTUI, "tui", false, "browse progress interactively")
	cmd.Flags().StringVar(&progressMode, "mode", "", "mode key: individual or team:<id> (default from config)")
	cmd.Flags().BoolVar(&progressColor, "color", false, "force colored output")
	return cmd
}

func runProgressCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	mode, err := resolveMode(progressMode, a.cfg)
	if err != nil {
		return err
	}

	if progressTUI {
		program := tea.NewProgram(progressui.NewModel(a.ledger, a.knownModes(mode)), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run progress TUI: %w", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	color := report.ShouldUseColor(out, progressColor)
	summaryOpts := report.Options{Color: color}
	bookOpts := report.Options{Color: color}
	if color {
		summaryOpts.BarWidth = report.BarWidthFor(report.TerminalWidth())
		bookOpts.BarWidth = summaryOpts.BarWidth / 2
	}
	if err := report.RenderSummary(out, a.ledger, mode, summaryOpts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	category, _ := bible.ParseCategory(a.cfg.DefaultBookCategory)
	if err := report.RenderBooks(out, report.BuildRows(a.ledger, mode, category), bookOpts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List books of the selected category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			category, _ := bible.ParseCategory(cfg.DefaultBookCategory)
			var meta *bible.Metadata
			if b, err := bible.Load(cfg.BiblePath); err == nil {
				meta = b.Metadata()
			}
			if err := report.RenderCatalog(cmd.OutOrStdout(), bible.FilterBooks(category), meta); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear reading progress of a mode",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetKeepCounts, "keep-counts", true, "keep book and full read-through counts")
	cmd.Flags().StringVar(&resetMode, "mode", "", "mode key: individual or team:<id> (default from config)")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	mode, err := resolveMode(resetMode, a.cfg)
	if err != nil {
		return err
	}
	if err := a.ledger.ResetAllProgress(ctx, mode, resetKeepCounts); err != nil {
		return err
	}
	a.log.Info("progress reset", "mode", model.ModeKey(mode), "keepCounts", resetKeepCounts)
	fmt.Fprintf(cmd.OutOrStdout(), "Reset %s progress.\n", model.ModeDisplayName(mode))
	return nil
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "seed",
		Short:  "Mark everything read except one verse (for rehearsing round completion)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   runSeedCmd,
	}
	cmd.Flags().StringVar(&seedHoldout, "holdout", "MRK", "book left one verse short")
	return cmd
}

func runSeedCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	holdout, ok := resolveBook(seedHoldout)
	if !ok {
		return fmt.Errorf("unknown book %q", seedHoldout)
	}
	var codes []string
	if a.bible != nil {
		codes = a.bible.BookCodes()
	} else {
		for _, b := range bible.Books {
			codes = append(codes, b.Code)
		}
	}
	mode := modeFromConfig(a.cfg)
	if err := a.ledger.SeedNearlyComplete(ctx, mode, holdout, codes); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: all books read except one verse of %s.\n",
		model.ModeDisplayName(mode), bible.LocalizedName(holdout, holdout))
	return nil
}
