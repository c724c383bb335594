package detector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Classifier define la interfaz del clasificador externo de voz.
type Classifier interface {
	Classify(ctx context.Context, path string) (Result, error)
}

// Result son las dos probabilidades del modelo más su salida cruda.
// Raw es solo diagnóstico: nunca se muestra al usuario final.
type Result struct {
	Fake float64
	Real float64
	Raw  string
}

var (
	ErrProcessFailed     = errors.New("classifier process failed")
	ErrUnparseableOutput = errors.New("classifier output unparseable")
	ErrTimeout           = errors.New("classifier timed out")
)

var (
	fakePattern = regexp.MustCompile(`fake:\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`)
	realPattern = regexp.MustCompile(`real:\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`)
)

// ParseOutput extrae "fake: <float>" y "real: <float>" de la salida del
// modelo. Si falta cualquiera de los dos es un error, nunca un resultado nulo.
func ParseOutput(output string) (Result, error) {
	fakeProb, err := extractProbability(fakePattern, output, "fake")
	if err != nil {
		return Result{Raw: output}, err
	}
	realProb, err := extractProbability(realPattern, output, "real")
	if err != nil {
		return Result{Raw: output}, err
	}
	return Result{Fake: fakeProb, Real: realProb, Raw: output}, nil
}

func extractProbability(re *regexp.Regexp, output, name string) (float64, error) {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("%w: missing %s probability", ErrUnparseableOutput, name)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrUnparseableOutput, name, err)
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: %s probability out of range: %v", ErrUnparseableOutput, name, v)
	}
	return v, nil
}
