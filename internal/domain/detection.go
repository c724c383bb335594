package domain

const (
	LabelFake = "FAKE"
	LabelReal = "REAL"
)

// DetectionResult es el resultado transitorio de clasificar un audio.
type DetectionResult struct {
	Fake  float64 `json:"fake"`
	Real  float64 `json:"real"`
	Label string  `json:"label"`
}

// LabelFor marca FAKE solo si fake supera estrictamente a real.
func LabelFor(fake, real float64) string {
	if fake > real {
		return LabelFake
	}
	return LabelReal
}

// IsFake indica si el audio fue clasificado como generado.
func (r DetectionResult) IsFake() bool {
	return r.Label == LabelFake
}
