package detector

import "context"

// MockClassifier permite tests sin ejecutar el modelo real.
type MockClassifier struct {
	Result   Result
	Err      error
	LastPath string
	// OnClassify se ejecuta antes de devolver, con el archivo aún en disco.
	OnClassify func(path string)
}

func (m *MockClassifier) Classify(_ context.Context, path string) (Result, error) {
	m.LastPath = path
	if m.OnClassify != nil {
		m.OnClassify(path)
	}
	return m.Result, m.Err
}
