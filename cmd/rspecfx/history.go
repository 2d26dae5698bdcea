package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/oxhq/rspecfx/db"
	"github.com/oxhq/rspecfx/models"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		prune int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run's offenses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.opts.db == "" {
				return CLIError{Code: ErrHistory, Message: "no history database configured", Detail: "use --db or RSPECFX_DB"}
			}
			conn, err := db.Connect(a.opts.db, a.env.LibsqlToken, a.opts.debug)
			if err != nil {
				return wrap(ErrHistory, "failed to open history database", err)
			}
			defer db.Close(conn)

			ctx := cmd.Context()
			if prune >= 0 {
				removed, err := db.Prune(ctx, conn, prune)
				if err != nil {
					return wrap(ErrHistory, "failed to prune history", err)
				}
				fmt.Fprintf(a.stdout, "Removed %d runs\n", removed)
				return nil
			}

			if len(args) == 1 {
				run, err := db.LoadRun(ctx, conn, args[0])
				if err != nil {
					if errors.Is(err, db.ErrRunNotFound) {
						return CLIError{Code: ErrHistory, Message: "run not found", Detail: args[0]}
					}
					return wrap(ErrHistory, "failed to load run", err)
				}
				writeRun(a.stdout, run)
				return nil
			}

			runs, err := db.Recent(ctx, conn, limit)
			if err != nil {
				return wrap(ErrHistory, "failed to list runs", err)
			}
			writeRuns(a.stdout, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 = all)")
	cmd.Flags().IntVar(&prune, "prune", -1, "Delete all but the given number of most recent runs")
	return cmd
}

var runColumns = []string{"ID", "STARTED", "MODE", "FILES", "OFFENSES", "CORRECTED", "DURATION"}

func writeRuns(w io.Writer, runs []models.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	rows := [][]string{runColumns}
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			strconv.Itoa(r.Files),
			strconv.Itoa(r.Offenses),
			strconv.Itoa(r.Corrected),
			(time.Duration(r.DurationMS) * time.Millisecond).String(),
		})
	}
	writeTable(w, rows)
}

// writeTable pads columns to their display width.
func writeTable(w io.Writer, rows [][]string) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

func writeRun(w io.Writer, run *models.Run) {
	fmt.Fprintf(w, "Run %s (%s) at %s\n", run.ID, run.Mode, run.StartedAt.Local().Format(time.RFC3339))
	if run.Root != "" {
		fmt.Fprintf(w, "Root: %s\n", run.Root)
	}
	fmt.Fprintf(w, "%d files, %d offenses, %d corrected, %d errors\n",
		run.Files, run.Offenses, run.Corrected, run.FilesWithError)

	for _, fr := range run.Results {
		if fr.Error == "" && len(fr.Records) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", fr.Path)
		if fr.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", fr.Error)
		}
		for _, rec := range fr.Records {
			status := ""
			if rec.Corrected {
				status = " [Corrected]"
			}
			fmt.Fprintf(w, "  %d:%d: %s%s: %s\n", rec.Line, rec.Column, rec.CopName, status, rec.Message)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
