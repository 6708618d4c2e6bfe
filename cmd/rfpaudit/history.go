package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
)

func runHistory(ctx context.Context, flags cliFlags, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum number of runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openHistory(flags)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("history is not enabled: pass -history-db or set historyDB in rfpaudit.yml")
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No audit runs recorded.")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("  #%-4d %-10s %3d corrections  %s  %s\n",
			r.ID, r.Status, r.Corrections, r.CompletedAt.Format("2006-01-02 15:04"), r.DocumentRef)
	}
	return nil
}

func runShow(ctx context.Context, flags cliFlags, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rfpaudit show <run-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := openHistory(flags)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("history is not enabled: pass -history-db or set historyDB in rfpaudit.yml")
	}
	defer store.Close()

	result, err := store.GetResult(ctx, id)
	if err != nil {
		return err
	}

	return writeResult(os.Stdout, flags.Format, result)
}
