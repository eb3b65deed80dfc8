package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `default:"20" help:"How many recent runs to show"`
	RunID string `arg:"" optional:"" name:"run-id" help:"Show the stored events of one run instead"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	store, err := history.NewSQLiteStore(cfg.Daemon.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if h.RunID != "" {
		return printRunEvents(ctx, os.Stdout, store, h.RunID)
	}

	projection := history.NewProjection(store, h.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}

	// Unfinished runs first (interrupted daemons leave them behind), then
	// finished ones newest first.
	summaries := append(projection.Active(), projection.Recent(h.Limit)...)
	if len(summaries) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	printSummaries(os.Stdout, summaries)
	return nil
}

func printSummaries(w io.Writer, summaries []*history.RunSummary) {
	fmt.Fprintf(w, "%-10s %-28s %-7s %-10s %-20s %s\n",
		"RUN", "NAME", "KIND", "STATUS", "QUEUED", "DURATION")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-10s %-28s %-7s %-10s %-20s %s\n",
			shortID(s.RunID),
			s.Name,
			s.Kind,
			s.Status,
			s.QueuedAt.Local().Format("2006-01-02 15:04:05"),
			formatRunDuration(s))
	}
}

func printRunEvents(ctx context.Context, w io.Writer, store *history.SQLiteStore, raw string) error {
	runID, err := resolveRunID(ctx, store, raw)
	if err != nil {
		return err
	}

	events, err := store.GetByRunID(ctx, runID)
	if err != nil {
		return err
	}

	for _, event := range events {
		fmt.Fprintf(w, "%s  %-14s %s\n",
			event.Timestamp().Format(time.RFC3339),
			event.Type(),
			string(event.Payload()))
	}
	return nil
}

// resolveRunID accepts either a full run ID or the short prefix the summary
// table displays.
func resolveRunID(ctx context.Context, store *history.SQLiteStore, raw string) (string, error) {
	events, err := store.GetByRunID(ctx, raw)
	if err != nil {
		return "", err
	}
	if len(events) > 0 {
		return raw, nil
	}

	projection := history.NewProjection(store, 0)
	if err := projection.Rebuild(ctx); err != nil {
		return "", err
	}

	match := ""
	for _, s := range append(projection.Recent(0), projection.Active()...) {
		if !strings.HasPrefix(s.RunID, raw) {
			continue
		}
		if match != "" && match != s.RunID {
			return "", errors.New(errors.CategoryHistory, errors.SeverityError, "run id prefix is ambiguous").
				WithContext("run_id", raw)
		}
		match = s.RunID
	}
	if match == "" {
		return "", errors.New(errors.CategoryHistory, errors.SeverityError, "no events recorded for run").
			WithContext("run_id", raw)
	}
	return match, nil
}

// shortID truncates a UUID for table display; both the full ID and the prefix
// work as the run-id argument.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunDuration(s *history.RunSummary) string {
	if s.Duration <= 0 {
		return "-"
	}
	return s.Duration.Round(time.Millisecond).String()
}
