// Command plates looks up NYC parking and camera violations for a license
// plate and prints them with totals.
//
// Usage:
//
//	go run ./cmd/plates -plate ABC1234 [-state NY] [-sort amount-desc] \
//	  [-status outstanding] [-agency TRAFFIC]
//
// When the plate is registered in more than one state and -state is not
// given, the candidate states are printed and the command exits with status 2.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/parking-violations-lookup/internal/adapter/opendata"
	"github.com/couchcryptid/parking-violations-lookup/internal/config"
	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
	"github.com/couchcryptid/parking-violations-lookup/internal/lookup"
	"github.com/couchcryptid/parking-violations-lookup/internal/observability"
	"github.com/couchcryptid/parking-violations-lookup/internal/session"
	"github.com/couchcryptid/parking-violations-lookup/internal/view"
)

const cliSession = "cli"

type options struct {
	plate  string
	state  string
	sort   string
	status string
	agency string
}

func main() {
	var opts options
	flag.StringVar(&opts.plate, "plate", "", "license plate to look up (required)")
	flag.StringVar(&opts.state, "state", "", "registration state, required when the plate is found in several states")
	flag.StringVar(&opts.sort, "sort", "", "sort order: date-desc, date-asc, amount-desc, amount-asc, violation, status")
	flag.StringVar(&opts.status, "status", "", "payment status filter: all, outstanding, paid, partial")
	flag.StringVar(&opts.agency, "agency", "", "issuing agency filter (exact name)")
	flag.Parse()

	if opts.plate == "" && flag.NArg() > 0 {
		opts.plate = flag.Arg(0)
	}
	if opts.plate == "" {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, opts, observability.NewMetrics(), os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, opts options, metrics *observability.Metrics, out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logger := observability.NewLoggerTo(os.Stderr, cfg)

	renderer, err := view.NewRenderer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "templates: %v\n", err)
		return 1
	}

	client := opendata.NewClient(cfg.OpenDataURL, cfg.OpenDataAppToken, cfg.OpenDataTimeout, metrics, logger)
	ctrl := lookup.New(client, session.NewStore(cfg.SessionTTL, 1), nil, logger, metrics)

	v, err := ctrl.Dispatch(ctx, cliSession, lookup.SearchRequested{Plate: opts.plate})
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: %v\n", err)
		return 1
	}

	if v.Phase == domain.PhaseDisambiguating {
		if opts.state == "" {
			return printView(renderer, out, v, 2)
		}
		v, err = ctrl.Dispatch(ctx, cliSession, lookup.StateChosen{State: opts.state})
		if errors.Is(err, lookup.ErrUnknownState) {
			fmt.Fprintf(os.Stderr, "state %q not found for this plate\n", opts.state)
			return printView(renderer, out, v, 2)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "choose state: %v\n", err)
			return 1
		}
	}

	if opts.sort != "" {
		v, _ = ctrl.Dispatch(ctx, cliSession, lookup.SortRequested{Key: domain.SortKey(opts.sort)})
	}
	if opts.status != "" || opts.agency != "" {
		v, _ = ctrl.Dispatch(ctx, cliSession, lookup.FilterChanged{
			Status: domain.StatusFilter(opts.status),
			Agency: opts.agency,
		})
	}

	code := 0
	if v.Phase == domain.PhaseError {
		code = 1
	}
	return printView(renderer, out, v, code)
}

func printView(r *view.Renderer, out io.Writer, v view.View, code int) int {
	if err := r.Text(out, v); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		return 1
	}
	return code
}
