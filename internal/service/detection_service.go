package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"echowipe/internal/detector"
	"echowipe/internal/domain"
)

var (
	ErrDetectionFailed = errors.New("detection failed")
	ErrNoAudio         = errors.New("no audio uploaded")
)

// DetectionService guarda el audio subido, lo clasifica y lo borra siempre,
// haya éxito o error.
type DetectionService struct {
	logger     *zap.Logger
	classifier detector.Classifier
	uploadDir  string
	timeout    time.Duration
}

func NewDetectionService(logger *zap.Logger, classifier detector.Classifier, uploadDir string, timeout time.Duration) (*DetectionService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if strings.TrimSpace(uploadDir) == "" {
		uploadDir = "uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", uploadDir, err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DetectionService{
		logger:     logger,
		classifier: classifier,
		uploadDir:  uploadDir,
		timeout:    timeout,
	}, nil
}

// Detect clasifica el audio leído de r. filename solo aporta la extensión;
// el nombre en disco es aleatorio.
func (s *DetectionService) Detect(ctx context.Context, filename string, r io.Reader) (domain.DetectionResult, error) {
	if r == nil {
		return domain.DetectionResult{}, ErrNoAudio
	}

	path, err := s.saveUpload(filename, r)
	if err != nil {
		return domain.DetectionResult{}, fmt.Errorf("%w: save upload: %w", ErrDetectionFailed, err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("remove upload failed", zap.Error(err), zap.String("path", path))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.classifier.Classify(ctx, path)
	if err != nil {
		fields := []zap.Field{zap.Error(err), zap.Duration("elapsed", time.Since(start))}
		var procErr *detector.ProcessError
		if errors.As(err, &procErr) {
			fields = append(fields, zap.Int("exit_code", procErr.ExitCode), zap.String("stderr", procErr.Stderr))
		}
		if res.Raw != "" {
			fields = append(fields, zap.String("raw_output", res.Raw))
		}
		s.logger.Error("classifier failed", fields...)
		return domain.DetectionResult{}, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	s.logger.Debug("classifier output", zap.String("raw_output", res.Raw), zap.Duration("elapsed", time.Since(start)))

	result := domain.DetectionResult{
		Fake: round6(res.Fake),
		Real: round6(res.Real),
	}
	result.Label = domain.LabelFor(res.Fake, res.Real)
	return result, nil
}

func (s *DetectionService) saveUpload(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 8 {
		ext = ".wav"
	}
	path := filepath.Join(s.uploadDir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr == nil && n == 0 {
		copyErr = ErrNoAudio
	}
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
