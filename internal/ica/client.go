// Package ica runs analyzers through the ica sidecar and returns decoded
// results.
//
// Each invocation normalizes its arguments, awaits the executor exactly
// once and decodes stdout. Retries are left to the caller.
package ica

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"icabridge/internal/argv"
	"icabridge/internal/csvdecode"
	"icabridge/internal/logging"
	"icabridge/internal/sidecar"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrOutputPathRequired is returned by InvokeCSVToFile without a path.
var ErrOutputPathRequired = errors.New("output path is required")

// CSVResult is a decoded analyzer run.
type CSVResult struct {
	InvocationID string
	Code         *int
	Signal       string
	Headers      []csvdecode.Header
	Rows         []csvdecode.Record
	Stderr       string
	RawCSV       string
	Args         []string
}

// Table returns the decoded part of the result.
func (r *CSVResult) Table() *csvdecode.Result {
	return &csvdecode.Result{Headers: r.Headers, Rows: r.Rows}
}

// CommandResult is an analyzer run whose output went to a file.
type CommandResult struct {
	InvocationID string
	Code         *int
	Signal       string
	Stderr       string
	Stdout       string
	Args         []string
}

// Client invokes the sidecar. It holds no per-invocation state and is safe
// for concurrent use when its executor and contact source are.
type Client struct {
	executor sidecar.Executor
	contacts ContactSource
}

// NewClient creates a client. contacts may be nil, in which case every call
// must carry its own contact flag.
func NewClient(executor sidecar.Executor, contacts ContactSource) *Client {
	return &Client{executor: executor, contacts: contacts}
}

// InvokeCSV runs an analyzer and decodes its CSV output.
func (c *Client) InvokeCSV(ctx context.Context, args argv.Args) (*CSVResult, error) {
	id := uuid.NewString()
	log := logging.Get(logging.CategoryClient).With("invocation", id)

	finalArgs, err := c.normalize(ctx, args, "")
	if err != nil {
		return nil, err
	}
	log.Debug("normalized args: %q", finalArgs)

	res, err := c.executor.Execute(ctx, append([]string(nil), finalArgs...))
	if err != nil {
		return nil, fmt.Errorf("failed to run ica: %w", err)
	}

	rawCSV := strings.TrimSpace(res.Stdout)
	stderr := strings.TrimSpace(res.Stderr)

	if rawCSV == "" && !res.Success() {
		return nil, newToolFailure(res, "", stderr)
	}

	decoded, err := csvdecode.Decode(rawCSV)
	if err != nil {
		if errors.Is(err, csvdecode.ErrEmptyResult) {
			return nil, fmt.Errorf("%w (args: %s)", err, strings.Join(finalArgs, " "))
		}
		return nil, err
	}

	log.Info("decoded %d columns, %d rows (code=%s)", len(decoded.Headers), len(decoded.Rows), res.CodeString())

	return &CSVResult{
		InvocationID: id,
		Code:         res.Code,
		Signal:       res.Signal,
		Headers:      decoded.Headers,
		Rows:         decoded.Rows,
		Stderr:       stderr,
		RawCSV:       rawCSV,
		Args:         finalArgs,
	}, nil
}

// InvokeCSVToFile runs an analyzer that writes CSV to outputPath.
// A non-zero exit is reported as *ToolFailureError.
func (c *Client) InvokeCSVToFile(ctx context.Context, args argv.Args, outputPath string) (*CommandResult, error) {
	if outputPath == "" {
		return nil, ErrOutputPathRequired
	}

	id := uuid.NewString()
	log := logging.Get(logging.CategoryClient).With("invocation", id)

	finalArgs, err := c.normalize(ctx, args, outputPath)
	if err != nil {
		return nil, err
	}
	log.Debug("normalized args: %q", finalArgs)

	res, err := c.executor.Execute(ctx, append([]string(nil), finalArgs...))
	if err != nil {
		return nil, fmt.Errorf("failed to run ica: %w", err)
	}

	stdout := strings.TrimSpace(res.Stdout)
	stderr := strings.TrimSpace(res.Stderr)

	if !res.Success() {
		return nil, newToolFailure(res, stdout, stderr)
	}

	log.Info("wrote %s", outputPath)

	return &CommandResult{
		InvocationID: id,
		Code:         res.Code,
		Signal:       res.Signal,
		Stderr:       stderr,
		Stdout:       stdout,
		Args:         finalArgs,
	}, nil
}

// RunMessageTotals runs the message_totals analyzer.
func (c *Client) RunMessageTotals(ctx context.Context) (*CSVResult, error) {
	return c.InvokeCSV(ctx, argv.List{"message_totals"})
}

// InvokeMany runs independent InvokeCSV calls with at most limit in flight
// (limit <= 0 means unbounded). Results are in request order. The first
// failure cancels the remaining runs.
func (c *Client) InvokeMany(ctx context.Context, requests []argv.Args, limit int) ([]*CSVResult, error) {
	results := make([]*CSVResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, args := range requests {
		g.Go(func() error {
			res, err := c.InvokeCSV(gctx, args)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) normalize(ctx context.Context, args argv.Args, outputPath string) ([]string, error) {
	opts := argv.Options{OutputPath: outputPath}
	if c.contacts != nil {
		opts.LookupContacts = func() ([]string, error) {
			return c.contacts.SelectedContacts(ctx)
		}
	}
	return argv.Normalize(args, opts)
}
