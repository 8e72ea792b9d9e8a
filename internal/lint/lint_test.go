package lint

import (
	"context"
	"errors"
	"testing"
)

func TestRunWrapsLinterErrors(t *testing.T) {
	boom := errors.New("boom")
	l := Func(func(context.Context, Request) (Result, error) {
		return Result{Messages: []Message{{Reason: "ignored"}}}, boom
	})
	res, err := Run(context.Background(), l, Request{Text: "x"})
	if !errors.Is(err, ErrLinter) {
		t.Fatalf("expected ErrLinter, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if len(res.Messages) != 0 {
		t.Fatalf("expected empty result on error, got %d messages", len(res.Messages))
	}
}

func TestRunRecoversPanics(t *testing.T) {
	l := Func(func(context.Context, Request) (Result, error) {
		panic("bad table")
	})
	_, err := Run(context.Background(), l, Request{})
	if !errors.Is(err, ErrLinter) {
		t.Fatalf("expected ErrLinter, got %v", err)
	}
}

func TestRunNilLinter(t *testing.T) {
	if _, err := Run(context.Background(), nil, Request{}); !errors.Is(err, ErrLinter) {
		t.Fatalf("expected ErrLinter, got %v", err)
	}
}

func TestRunPassesResultThrough(t *testing.T) {
	l := Func(func(_ context.Context, req Request) (Result, error) {
		return Result{Messages: []Message{{Reason: req.Text}}}, nil
	})
	res, err := Run(context.Background(), l, Request{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Messages) != 1 || res.Messages[0].Reason != "hello" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
