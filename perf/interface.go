package perf

// ChangeDetector types calculate change points.
type ChangeDetector interface {
	DetectChanges([]float64) ([]ChangePoint, error)
}

// ChangePoint is a single detected shift, identified by the index of the
// first sample of the new segment.
type ChangePoint struct {
	Index int
	Info  AlgorithmInfo
}

type AlgorithmInfo struct {
	Name    string
	Version int
	Options []AlgorithmOption
}

type AlgorithmOption struct {
	Name  string
	Value interface{}
}
