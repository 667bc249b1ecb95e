package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/execution"
)

func listQueue(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("queue", flag.ContinueOnError)
	pending := fs.Bool("pending", false, "only pending items")
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, err := a.queue.List(ctx, *pending)
	if err != nil {
		return err
	}
	a.console.PrintQueue(items)
	return nil
}

func actOnItem(ctx context.Context, a *app, action string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: polyarb %s <id>", action)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}

	out := a.console.Out()
	switch action {
	case "approve":
		res, err := a.executor.Execute(ctx, id, domain.SourceManual)
		if execution.IsRejection(err) {
			fmt.Fprintf(out, "item %d not approved: %v\n", id, err)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "item %d approved: mode=%s dry_run=%t success=%t message=%s\n",
			id, res.Mode, res.DryRun, res.Success, res.Message)
	case "reject":
		if _, err := a.queue.Reject(ctx, id, domain.SourceManual); err != nil {
			return err
		}
		fmt.Fprintf(out, "item %d rejected\n", id)
	case "reopen":
		if _, err := a.queue.Reopen(ctx, id, domain.SourceManual); err != nil {
			return err
		}
		fmt.Fprintf(out, "item %d pending again\n", id)
	}
	return nil
}

// setMode sin flags solo muestra el estado actual.
func setMode(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("mode", flag.ContinueOnError)
	execMode := fs.String("execution", "", "paper | live")
	dryRun := fs.String("dry-run", "", "true | false")
	trigger := fs.String("trigger", "", "auto | manual")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var u domain.ModeUpdate
	if *execMode != "" {
		m := domain.ExecutionMode(*execMode)
		u.ExecutionMode = &m
	}
	if *dryRun != "" {
		v, err := strconv.ParseBool(*dryRun)
		if err != nil {
			return fmt.Errorf("invalid -dry-run %q: %w", *dryRun, err)
		}
		u.DryRun = &v
	}
	if *trigger != "" {
		t := domain.TriggerMode(*trigger)
		u.TriggerMode = &t
	}

	var (
		state domain.ModeState
		err   error
	)
	if u.ExecutionMode == nil && u.DryRun == nil && u.TriggerMode == nil {
		state, err = a.modes.Get(ctx)
	} else {
		state, err = a.modes.Set(ctx, u)
	}
	if err != nil {
		return err
	}
	a.console.PrintMode(state)
	return nil
}

func showMetrics(ctx context.Context, a *app) error {
	snap, err := a.monitor.Snapshot(ctx)
	if err != nil {
		return err
	}
	a.console.PrintMetrics(snap)

	runs, err := a.monitor.PipelineRuns(ctx, 15)
	if err != nil {
		return err
	}
	a.console.PrintPipelineRuns(runs)
	return nil
}

func showAudit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "max records")
	action := fs.String("action", "", "filter by action")
	if err := fs.Parse(args); err != nil {
		return err
	}
	records, err := a.store.ReadAudit(ctx, *limit, domain.AuditAction(*action))
	if err != nil {
		return err
	}
	a.console.PrintAudit(records)
	return nil
}
