package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay acota cuánto se espera a que se cierren stdout/stderr después
// de matar el proceso; un nieto que herede los pipes no bloquea la respuesta.
const waitDelay = 2 * time.Second

// ProcessError describe una salida con estado distinto de cero.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Stdout   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("classifier exited with status %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

func (e *ProcessError) Unwrap() error {
	return ErrProcessFailed
}

// ProcessClassifier ejecuta el script de evaluación local:
//
//	<python> <script> --input_path <audio> --model_path <modelo>
type ProcessClassifier struct {
	command   string
	baseArgs  []string
	modelPath string
}

func NewProcessClassifier(python, script, modelPath string) (*ProcessClassifier, error) {
	if strings.TrimSpace(python) == "" {
		return nil, fmt.Errorf("detector python is required")
	}
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("detector script is required")
	}
	if strings.TrimSpace(modelPath) == "" {
		return nil, fmt.Errorf("detector model path is required")
	}
	return &ProcessClassifier{
		command:   python,
		baseArgs:  []string{script},
		modelPath: modelPath,
	}, nil
}

func (c *ProcessClassifier) Classify(ctx context.Context, path string) (Result, error) {
	args := append(append([]string{}, c.baseArgs...), "--input_path", path, "--model_path", c.modelPath)
	cmd := exec.CommandContext(ctx, c.command, args...)
	killProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{Raw: stdout.String()}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Raw: stdout.String()}, &ProcessError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
				Stdout:   stdout.String(),
			}
		}
		return Result{}, fmt.Errorf("%w: %v", ErrProcessFailed, err)
	}

	return ParseOutput(stdout.String())
}
