package ica

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"icabridge/internal/argv"
	"icabridge/internal/csvdecode"
	"icabridge/internal/sidecar"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// fakeExecutor records every call and replies with a fixed result.
type fakeExecutor struct {
	mu     sync.Mutex
	calls  [][]string
	result *sidecar.Result
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, args []string) (*sidecar.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeExecutor) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingContacts struct {
	contacts []string
	err      error
	calls    atomic.Int32
}

func (c *countingContacts) SelectedContacts(context.Context) ([]string, error) {
	c.calls.Add(1)
	return c.contacts, c.err
}

func TestInvokeCSV_DecodesOutput(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{
		Code:   intPtr(0),
		Stdout: "\n Messages,Contact\n12,Jane\n",
		Stderr: "  warning: cached  \n",
	}}
	client := NewClient(exec, StaticContacts{"Jane"})

	res, err := client.InvokeCSV(context.Background(), argv.Line("message_totals"))
	require.NoError(t, err)

	wantArgs := []string{"message_totals", "--contact", "Jane", "--format", "csv"}
	assert.Equal(t, wantArgs, res.Args)
	assert.Equal(t, [][]string{wantArgs}, exec.Calls())

	if diff := cmp.Diff([]csvdecode.Header{
		{Original: "Messages", ID: "messages"},
		{Original: "Contact", ID: "contact"},
	}, res.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []csvdecode.Record{{"messages": int64(12), "contact": "Jane"}}, res.Rows)
	assert.Equal(t, "Messages,Contact\n12,Jane", res.RawCSV)
	assert.Equal(t, "warning: cached", res.Stderr)
	assert.Equal(t, 0, *res.Code)
	assert.NotEmpty(t, res.InvocationID)
	assert.Len(t, res.Table().Rows, 1)
}

func TestInvokeCSV_ExecutorGetsCopy(t *testing.T) {
	t.Parallel()

	exec := sidecar.Func(func(ctx context.Context, args []string) (*sidecar.Result, error) {
		args[0] = "mutated"
		return &sidecar.Result{Code: intPtr(0), Stdout: "A\n1"}, nil
	})
	res, err := NewClient(exec, nil).InvokeCSV(context.Background(), argv.List{"transcript", "-c", "x"})
	require.NoError(t, err)
	assert.Equal(t, "transcript", res.Args[0])
}

func TestInvokeCSV_MissingContactSkipsExecutor(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(0), Stdout: "A\n1"}}
	client := NewClient(exec, StaticContacts(nil))

	_, err := client.InvokeCSV(context.Background(), argv.Line("message_totals"))
	assert.ErrorIs(t, err, argv.ErrMissingContact)
	assert.Empty(t, exec.Calls())
}

func TestInvokeCSV_ContactFlagSkipsLookup(t *testing.T) {
	t.Parallel()

	contacts := &countingContacts{contacts: []string{"Jane"}}
	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(0), Stdout: "A\n1"}}

	_, err := NewClient(exec, contacts).InvokeCSV(context.Background(), argv.Line("transcript --contact=Bob"))
	require.NoError(t, err)
	assert.Equal(t, int32(0), contacts.calls.Load())
	assert.Equal(t, []string{"transcript", "--contact", "Bob", "--format", "csv"}, exec.Calls()[0])
}

func TestInvokeCSV_ContactLookupError(t *testing.T) {
	t.Parallel()

	boom := errors.New("settings unreadable")
	exec := &fakeExecutor{}
	_, err := NewClient(exec, &countingContacts{err: boom}).InvokeCSV(context.Background(), argv.Line("message_totals"))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, exec.Calls())
}

func TestInvokeCSV_FailureWithoutOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  *sidecar.Result
		message string
	}{
		{
			name:    "stderr preferred",
			result:  &sidecar.Result{Code: intPtr(2), Stderr: "  no such contact \n"},
			message: "no such contact",
		},
		{
			name:    "generic message with code",
			result:  &sidecar.Result{Code: intPtr(1)},
			message: "ica exited with code 1",
		},
		{
			name:    "killed by signal",
			result:  &sidecar.Result{Signal: "killed"},
			message: "ica exited with code unknown",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClient(&fakeExecutor{result: tt.result}, StaticContacts{"x"}).
				InvokeCSV(context.Background(), argv.Line("message_totals"))

			var tf *ToolFailureError
			require.True(t, errors.As(err, &tf), "got %T: %v", err, err)
			assert.Equal(t, tt.message, tf.Error())
			assert.Equal(t, tt.result.Code, tf.Code)
			assert.Equal(t, tt.result.Signal, tf.Signal)
		})
	}
}

func TestInvokeCSV_NonZeroExitWithOutputStillDecodes(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(1), Stdout: "A\n1", Stderr: "partial"}}
	res, err := NewClient(exec, StaticContacts{"x"}).InvokeCSV(context.Background(), argv.Line("message_totals"))
	require.NoError(t, err)
	assert.Equal(t, 1, *res.Code)
	assert.Equal(t, "partial", res.Stderr)
	assert.Len(t, res.Rows, 1)
}

func TestInvokeCSV_EmptySuccessfulOutput(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(0), Stdout: "  \n"}}
	_, err := NewClient(exec, StaticContacts{"x"}).InvokeCSV(context.Background(), argv.Line("message_totals"))
	assert.ErrorIs(t, err, csvdecode.ErrEmptyResult)
	assert.ErrorContains(t, err, "message_totals --contact x --format csv")
}

func TestInvokeCSV_ParseError(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(0), Stdout: "A,B\n1,2,3"}}
	_, err := NewClient(exec, StaticContacts{"x"}).InvokeCSV(context.Background(), argv.Line("message_totals"))

	var pe *csvdecode.ParseError
	require.True(t, errors.As(err, &pe), "got %T: %v", err, err)
	assert.Equal(t, 0, pe.Row)
}

func TestInvokeCSV_ExecutorError(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{err: sidecar.ErrTimeout}
	_, err := NewClient(exec, StaticContacts{"x"}).InvokeCSV(context.Background(), argv.Line("message_totals"))
	assert.ErrorIs(t, err, sidecar.ErrTimeout)
	assert.Len(t, exec.Calls(), 1, "the executor is awaited exactly once")
}

func TestInvokeCSVToFile(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(0), Stdout: "wrote 10 rows\n"}}
	client := NewClient(exec, StaticContacts{"Jane"})

	res, err := client.InvokeCSVToFile(context.Background(), argv.Line("transcript -o ignored.csv -f md"), "/tmp/out.csv")
	require.NoError(t, err)

	want := []string{"transcript", "--contact", "Jane", "--format", "csv", "--output", "/tmp/out.csv"}
	assert.Equal(t, want, res.Args)
	assert.Equal(t, want, exec.Calls()[0])
	assert.Equal(t, "wrote 10 rows", res.Stdout)
	assert.NotEmpty(t, res.InvocationID)
}

func TestInvokeCSVToFile_RequiresPath(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{}
	_, err := NewClient(exec, StaticContacts{"x"}).InvokeCSVToFile(context.Background(), argv.Line("transcript"), "")
	assert.ErrorIs(t, err, ErrOutputPathRequired)
	assert.Empty(t, exec.Calls())
}

func TestInvokeCSVToFile_Failure(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(4), Stdout: "disk full"}}
	_, err := NewClient(exec, StaticContacts{"x"}).InvokeCSVToFile(context.Background(), argv.Line("transcript"), "out.csv")

	var tf *ToolFailureError
	require.True(t, errors.As(err, &tf))
	assert.Equal(t, "disk full", tf.Error())
	assert.Equal(t, 4, *tf.Code)
}

func TestRunMessageTotals(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{result: &sidecar.Result{Code: intPtr(0), Stdout: "Total\n5"}}
	res, err := NewClient(exec, StaticContacts{"a", "b"}).RunMessageTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"message_totals", "--contact", "a", "--contact", "b", "--format", "csv"}, res.Args)
	assert.Equal(t, []csvdecode.Record{{"total": int64(5)}}, res.Rows)
}

func TestInvokeMany_PreservesOrderAndLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	exec := sidecar.Func(func(ctx context.Context, args []string) (*sidecar.Result, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return &sidecar.Result{Code: intPtr(0), Stdout: "Name\n" + args[0]}, nil
	})

	requests := []argv.Args{
		argv.List{"attachment_totals"},
		argv.List{"message_totals"},
		argv.List{"totals_by_day"},
		argv.List{"most_frequent_emojis"},
	}
	results, err := NewClient(exec, StaticContacts{"x"}).InvokeMany(context.Background(), requests, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, name := range []string{"attachment_totals", "message_totals", "totals_by_day", "most_frequent_emojis"} {
		assert.Equal(t, name, results[i].Rows[0]["name"])
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestInvokeMany_FirstErrorWins(t *testing.T) {
	t.Parallel()

	exec := sidecar.Func(func(ctx context.Context, args []string) (*sidecar.Result, error) {
		if args[0] == "bad" {
			return &sidecar.Result{Code: intPtr(1), Stderr: "unknown analyzer"}, nil
		}
		return &sidecar.Result{Code: intPtr(0), Stdout: "A\n1"}, nil
	})

	_, err := NewClient(exec, StaticContacts{"x"}).InvokeMany(context.Background(), []argv.Args{
		argv.List{"message_totals"},
		argv.List{"bad"},
	}, 0)

	var tf *ToolFailureError
	require.True(t, errors.As(err, &tf))
	assert.ErrorContains(t, err, "request 1")
}
