package detector

import (
	"errors"
	"testing"
)

func TestParseOutput_WellFormed(t *testing.T) {
	out := "loading model...\nfake: 0.8\nreal: 0.2\n"
	res, err := ParseOutput(out)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Fake != 0.8 || res.Real != 0.2 {
		t.Fatalf("unexpected probabilities: %+v", res)
	}
	if res.Raw != out {
		t.Fatalf("expected raw output preserved")
	}
}

func TestParseOutput_ScientificNotation(t *testing.T) {
	res, err := ParseOutput("fake:1.5e-03 real:   9.985e-01")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Fake != 0.0015 || res.Real != 0.9985 {
		t.Fatalf("unexpected probabilities: %+v", res)
	}
}

func TestParseOutput_MissingToken(t *testing.T) {
	cases := []string{
		"fake: 0.8",
		"real: 0.2",
		"",
		"Traceback (most recent call last)",
	}
	for _, out := range cases {
		if _, err := ParseOutput(out); !errors.Is(err, ErrUnparseableOutput) {
			t.Fatalf("ParseOutput(%q): expected ErrUnparseableOutput, got %v", out, err)
		}
	}
}

func TestParseOutput_OutOfRange(t *testing.T) {
	if _, err := ParseOutput("fake: 1.7\nreal: 0.2"); !errors.Is(err, ErrUnparseableOutput) {
		t.Fatalf("expected ErrUnparseableOutput for probability > 1, got %v", err)
	}
}

func TestProcessErrorUnwrap(t *testing.T) {
	var err error = &ProcessError{ExitCode: 1, Stderr: "boom"}
	if !errors.Is(err, ErrProcessFailed) {
		t.Fatalf("expected ProcessError to match ErrProcessFailed")
	}
}
