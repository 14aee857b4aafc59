// Command placement inspects and edits class placements against a running
// API server.
//
//	placement [-base URL] [-token T] [-mode atomic|partialOnError] show
//	placement move -student ID -from BUCKET|unassigned -to BUCKET|unassigned [-dry-run]
//	placement finalize
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/pkg/config"
	"github.com/noah-isme/step-lms-api/pkg/logger"
	"github.com/noah-isme/step-lms-api/pkg/placement"
)

var errUsage = errors.New("usage: placement [flags] show|move|finalize")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, errUsage)
			os.Exit(2)
		}
		logr.Error("placement command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	global := flag.NewFlagSet("placement", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	base := global.String("base", cfg.Client.BaseURL, "API base URL including the prefix")
	token := global.String("token", cfg.Client.Token, "bearer token")
	mode := global.String("mode", string(models.BulkModeAtomic), "finalize mode: atomic or partialOnError")
	timeout := global.Duration("timeout", cfg.Client.Timeout, "per request timeout")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errUsage
	}
	if !models.BulkOperationMode(*mode).Valid() {
		return fmt.Errorf("unknown mode %q", *mode)
	}

	client := placement.NewClient(config.ClientConfig{BaseURL: *base, Token: *token, Timeout: *timeout}, nil).
		WithMode(models.BulkOperationMode(*mode))
	session := placement.NewSession(client, placement.Options{
		DefaultCapacity: cfg.Placement.DefaultCapacity,
		TempIDPrefix:    cfg.Placement.TempIDPrefix,
	})

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "show":
		if err := session.Load(ctx); err != nil {
			return err
		}
		return printBoard(out, session)
	case "move":
		return move(ctx, session, rest, out)
	case "finalize":
		if err := session.Load(ctx); err != nil {
			return err
		}
		return finalize(ctx, session, out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func move(ctx context.Context, session *placement.Session, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	student := fs.String("student", "", "student id")
	from := fs.String("from", placement.Unassigned, "source bucket id")
	to := fs.String("to", "", "target bucket id")
	dryRun := fs.Bool("dry-run", false, "print the board without saving")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *student == "" || *to == "" {
		return fmt.Errorf("%w: move needs -student and -to", errUsage)
	}

	if err := session.Load(ctx); err != nil {
		return err
	}
	if err := session.MoveStudent(*student, *from, *to); err != nil {
		return err
	}
	if *dryRun {
		return printBoard(out, session)
	}
	return finalize(ctx, session, out)
}

func finalize(ctx context.Context, session *placement.Session, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	result, err := session.Finalize(ctx)
	if err != nil {
		var apiErr *placement.APIError
		if errors.As(err, &apiErr) && apiErr.Failure != nil {
			return fmt.Errorf("student %s could not be placed in %s: %s", apiErr.Failure.StudentID, apiErr.Failure.ClassName, apiErr.Failure.Reason)
		}
		return err
	}
	fmt.Fprintf(out, "mode=%s applied=%d skipped=%d failed=%d\n", result.Mode, result.Applied, len(result.Skipped), len(result.Failed))
	for _, f := range result.Failed {
		fmt.Fprintf(out, "  failed %s -> %s: %s\n", f.StudentID, f.ClassName, f.Reason)
	}
	return nil
}

func printBoard(out io.Writer, session *placement.Session) error {
	buckets := session.Buckets()
	filled, total := placement.Seats(buckets)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLASS\tROOM\tTEACHER\tSEATS\tSTATE\tSTUDENTS")
	for _, b := range buckets {
		names := make([]string, len(b.Students))
		for i, s := range b.Students {
			names[i] = s.ID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			b.ID, b.ClassName, b.RoomNumber, b.TeacherName, len(b.Students), b.Capacity, placement.BucketState(b), strings.Join(names, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pool := session.Pool()
	ids := make([]string, len(pool))
	for i, s := range pool {
		ids[i] = s.ID
	}
	fmt.Fprintf(out, "\nseats %d/%d, unassigned %d: %s\n", filled, total, len(pool), strings.Join(ids, ","))
	if session.Dirty() {
		fmt.Fprintln(out, "unsaved changes")
	}
	return nil
}
