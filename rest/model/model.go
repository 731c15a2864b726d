package model

// Model defines how to transform to and from an API model for a given
// stored type.
type Model interface {
	// Import transforms a stored document into the API model.
	Import(interface{}) error
	// Export transforms the API model back into a stored document.
	Export() (interface{}, error)
}

var (
	_ Model = &APIChangePointAnalysis{}
	_ Model = &APIEnergySeries{}
)
