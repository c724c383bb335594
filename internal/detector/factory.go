package detector

import (
	"fmt"
	"net/http"
	"strings"

	"echowipe/internal/config"
)

const (
	ModeProcess = "process"
	ModeHTTP    = "http"
)

// NewFromConfig elige el backend según DETECTOR_MODE.
func NewFromConfig(cfg config.DetectorConfig) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DetectorMode)) {
	case "", ModeProcess:
		c, err := NewProcessClassifier(cfg.DetectorPython, cfg.DetectorScript, cfg.DetectorModelPath)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ModeHTTP:
		c, err := NewHTTPClassifier(cfg.DetectorURL, &http.Client{Timeout: cfg.DetectorTimeout()})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown detector mode %q", cfg.DetectorMode)
	}
}
