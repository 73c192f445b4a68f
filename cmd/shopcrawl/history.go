package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/shopcrawl/internal/config"
	"github.com/nao1215/shopcrawl/internal/database"
	"github.com/nao1215/shopcrawl/internal/model"
	"github.com/nao1215/shopcrawl/internal/report"
	"github.com/spf13/cobra"
)

// latestRunAlias selects the most recent run.
const latestRunAlias = "latest"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previous crawl runs",
		Long: `History lists the crawl runs stored in the local database, newest first.

Given a run ID (or a unique prefix of one, or "latest") it prints that run
with every domain and product URL.

Examples:
  # List the last 20 runs
  shopcrawl history

  # Show the newest run as JSON
  shopcrawl history latest

  # Show a run as Markdown
  shopcrawl history -m 3f2a

  # Delete a run
  shopcrawl history --delete 3f2a`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the selected run as Markdown instead of JSON")
	cmd.Flags().Bool("delete", false,
		"Delete the selected run")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the run history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	deleteRun, err := cmd.Flags().GetBool("delete")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	if deleteRun && len(args) == 0 {
		return errors.New("a run ID is required with --delete")
	}

	out := cmd.OutOrStdout()
	db, err := database.Open(dbDir, database.Options{})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 {
		return listRuns(ctx, out, db, limit)
	}

	run, err := findRun(ctx, db, args[0])
	if err != nil {
		return err
	}

	if deleteRun {
		if err := db.DeleteRun(ctx, run.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %s\n", run.ID)
		return nil
	}

	var w report.Writer = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithFullRun())
	if markdownOutput {
		w = report.NewMarkdownWriter(out)
	}
	_, err = w.Write(run)
	return err
}

func findRun(ctx context.Context, db *database.CrawlDB, id string) (*model.Run, error) {
	if id == latestRunAlias {
		return db.LatestRun(ctx)
	}
	return db.GetRun(ctx, id)
}

// listRuns prints one line per stored run.
func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-21s  %7s  %8s  %6s\n",
		"ID", "Started", "Status", "Domains", "Products", "Pages")
	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-21s  %7d  %8d  %6d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.Domains,
			r.TotalProducts,
			r.TotalPages,
		)
	}
	return nil
}
