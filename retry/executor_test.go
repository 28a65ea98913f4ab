package retry

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/mindloop/resilience/errors"
	"github.com/mindloop/resilience/logging"
)

// recordingSuspender captures every delay the executor asks for without
// actually waiting.
type recordingSuspender struct {
	delays []time.Duration
}

func (r *recordingSuspender) suspend(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func quietLogger() *logging.Logger {
	l := logging.New()
	l.SetOutput(&bytes.Buffer{})
	return l
}

// failNTimes returns an operation that fails with err for the first n
// invocations and succeeds afterwards, counting calls.
func failNTimes(n int, err error, calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls <= n {
			return err
		}
		return nil
	}
}

func TestExecute_SucceedsFirstTry(t *testing.T) {
	rec := &recordingSuspender{}
	e := NewExecutor("test.op", MustPolicy(), WithSuspend(rec.suspend), WithLogger(quietLogger()))

	calls := 0
	err := e.Execute(context.Background(), failNTimes(0, nil, &calls))
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("operation invoked %d times, want 1", calls)
	}
	if len(rec.delays) != 0 {
		t.Errorf("recorded %d suspensions, want 0", len(rec.delays))
	}
}

func TestExecute_DelaySequence(t *testing.T) {
	// The worked scenario: three retries, 1s initial, 10s cap, base 2.0,
	// no jitter, operation fails twice then succeeds.
	p := MustPolicy(
		WithMaxRetries(3),
		WithInitialDelay(time.Second),
		WithMaxDelay(10*time.Second),
		WithBase(2.0),
		WithJitter(false),
	)
	rec := &recordingSuspender{}
	e := NewExecutor("flashcard.save", p, WithSuspend(rec.suspend), WithLogger(quietLogger()))

	calls := 0
	transient := errors.ConnectionReset("reset by peer")
	err := e.Execute(context.Background(), failNTimes(2, transient, &calls))
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("operation invoked %d times, want 3", calls)
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if len(rec.delays) != len(want) {
		t.Fatalf("recorded delays %v, want %v", rec.delays, want)
	}
	for i, w := range want {
		if rec.delays[i] != w {
			t.Errorf("delays[%d] = %v, want %v", i, rec.delays[i], w)
		}
	}
}

func TestExecute_Exhaustion(t *testing.T) {
	p := MustPolicy(WithMaxRetries(3), WithInitialDelay(time.Millisecond), WithJitter(false))
	rec := &recordingSuspender{}
	e := NewExecutor("test.op", p, WithSuspend(rec.suspend), WithLogger(quietLogger()))

	calls := 0
	transient := errors.ServiceUnavailable("backend 503")
	err := e.Execute(context.Background(), failNTimes(100, transient, &calls))
	if err == nil {
		t.Fatal("expected the final failure after exhaustion")
	}
	// maxRetries=3 means four invocations total: initial plus three retries.
	if calls != 4 {
		t.Errorf("operation invoked %d times, want 4", calls)
	}
	if len(rec.delays) != 3 {
		t.Errorf("recorded %d suspensions, want 3", len(rec.delays))
	}
	// The original failure comes back unwrapped.
	if !stderrors.Is(err, transient) {
		t.Errorf("Execute() = %v, want the original failure", err)
	}
}

func TestExecute_ZeroRetries(t *testing.T) {
	p := MustPolicy(WithMaxRetries(0))
	rec := &recordingSuspender{}
	e := NewExecutor("test.op", p, WithSuspend(rec.suspend), WithLogger(quietLogger()))

	calls := 0
	err := e.Execute(context.Background(), failNTimes(100, errors.Network("down"), &calls))
	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("operation invoked %d times, want 1", calls)
	}
	if len(rec.delays) != 0 {
		t.Errorf("recorded %d suspensions, want 0", len(rec.delays))
	}
}

func TestExecute_FatalShortCircuit(t *testing.T) {
	p := MustPolicy(
		WithMaxRetries(5),
		WithRetryOn(errors.KindConnectionReset, errors.KindServiceUnavailable),
	)
	rec := &recordingSuspender{}
	e := NewExecutor("test.op", p, WithSuspend(rec.suspend), WithLogger(quietLogger()))

	calls := 0
	fatal := errors.InvalidInput("malformed document")
	err := e.Execute(context.Background(), failNTimes(100, fatal, &calls))
	if !stderrors.Is(err, fatal) {
		t.Fatalf("Execute() = %v, want the fatal failure", err)
	}
	if calls != 1 {
		t.Errorf("operation invoked %d times, want 1", calls)
	}
	if len(rec.delays) != 0 {
		t.Errorf("non-retryable failure must not suspend, got %v", rec.delays)
	}
}

func TestExecute_CancellationDuringBackoff(t *testing.T) {
	p := MustPolicy(WithMaxRetries(5), WithInitialDelay(time.Minute), WithJitter(false))
	e := NewExecutor("test.op", p, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := func(context.Context) error {
		calls++
		cancel() // cancel while the executor is about to back off
		return errors.ServiceUnavailable("503")
	}

	start := time.Now()
	err := e.Execute(ctx, op)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Execute() = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("operation invoked %d times after cancel, want 1", calls)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation should abort the backoff, waited %v", elapsed)
	}
}

func TestExecute_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExecutor("test.op", MustPolicy(), WithLogger(quietLogger()))
	calls := 0
	err := e.Execute(ctx, failNTimes(0, nil, &calls))
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Execute() = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("operation invoked %d times on a dead context, want 0", calls)
	}
}

func TestExecute_LogsAttempts(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New().WithComponent("retry")
	logger.SetOutput(&buf)

	p := MustPolicy(WithMaxRetries(2), WithInitialDelay(time.Millisecond), WithJitter(false))
	rec := &recordingSuspender{}
	e := NewExecutor("quiz.generate", p, WithSuspend(rec.suspend), WithLogger(logger))

	calls := 0
	err := e.Execute(context.Background(), failNTimes(100, errors.RateLimited("429"), &calls))
	if err == nil {
		t.Fatal("expected exhaustion")
	}

	output := buf.String()
	for _, want := range []string{"retry_attempt", "operation=quiz.generate", "kind=rate_limited", "retry_exhausted"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log output, got:\n%s", want, output)
		}
	}
}

func TestExecuteSync_MatchesAsyncSemantics(t *testing.T) {
	p := MustPolicy(
		WithMaxRetries(3),
		WithInitialDelay(time.Second),
		WithMaxDelay(10*time.Second),
		WithBase(2.0),
		WithJitter(false),
	)

	var slept []time.Duration
	e := NewExecutor("flashcard.save", p,
		WithSleep(func(d time.Duration) { slept = append(slept, d) }),
		WithLogger(quietLogger()))

	calls := 0
	transient := errors.ConnectionReset("reset by peer")
	err := e.ExecuteSync(func() error {
		calls++
		if calls <= 2 {
			return transient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteSync() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("operation invoked %d times, want 3", calls)
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i, w := range want {
		if slept[i] != w {
			t.Errorf("slept[%d] = %v, want %v", i, slept[i], w)
		}
	}
}

func TestExecuteSync_Exhaustion(t *testing.T) {
	p := MustPolicy(WithMaxRetries(2), WithInitialDelay(time.Millisecond), WithJitter(false))
	e := NewExecutor("test.op", p,
		WithSleep(func(time.Duration) {}),
		WithLogger(quietLogger()))

	calls := 0
	transient := errors.Network("flaky link")
	err := e.ExecuteSync(func() error {
		calls++
		return transient
	})
	if !stderrors.Is(err, transient) {
		t.Fatalf("ExecuteSync() = %v, want the original failure", err)
	}
	if calls != 3 {
		t.Errorf("operation invoked %d times, want 3", calls)
	}
}

func TestDo_ReturnsValue(t *testing.T) {
	p := MustPolicy(WithMaxRetries(3), WithInitialDelay(time.Millisecond), WithJitter(false))
	rec := &recordingSuspender{}
	e := NewExecutor("test.op", p, WithSuspend(rec.suspend), WithLogger(quietLogger()))

	calls := 0
	got, err := Do(context.Background(), e, func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.ServiceUnavailable("503")
		}
		return "generated quiz", nil
	})
	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}
	if got != "generated quiz" {
		t.Errorf("Do() = %q, want %q", got, "generated quiz")
	}
}

func TestDo_ZeroValueOnFailure(t *testing.T) {
	p := MustPolicy(WithMaxRetries(0))
	e := NewExecutor("test.op", p, WithLogger(quietLogger()))

	got, err := Do(context.Background(), e, func(context.Context) (int, error) {
		return 42, errors.InvalidInput("bad")
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if got != 0 {
		t.Errorf("Do() = %d on failure, want zero value", got)
	}
}

func TestNextStep(t *testing.T) {
	p := MustPolicy(
		WithMaxRetries(2),
		WithInitialDelay(time.Second),
		WithMaxDelay(time.Minute),
		WithBase(2.0),
		WithJitter(false),
		WithRetryOn(errors.KindServiceUnavailable),
	)

	transient := errors.ServiceUnavailable("503")
	fatal := errors.Unauthorized("nope")

	tests := []struct {
		name         string
		attemptsMade int
		err          error
		wantKind     stepKind
		wantDelay    time.Duration
	}{
		{"success", 0, nil, stepReturn, 0},
		{"first_retry", 0, transient, stepSuspend, time.Second},
		{"second_retry", 1, transient, stepSuspend, 2 * time.Second},
		{"budget_spent", 2, transient, stepExhaust, 0},
		{"fatal_any_attempt", 0, fatal, stepFatal, 0},
		{"fatal_over_exhaust", 5, fatal, stepFatal, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := nextStep(p, tt.attemptsMade, tt.err)
			if st.kind != tt.wantKind {
				t.Errorf("nextStep().kind = %v, want %v", st.kind, tt.wantKind)
			}
			if st.delay != tt.wantDelay {
				t.Errorf("nextStep().delay = %v, want %v", st.delay, tt.wantDelay)
			}
		})
	}
}
