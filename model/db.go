package model

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	energySeriesCollection        = "energy_series"
	changePointAnalysisCollection = "change_point_analyses"
)

// ResultsNotFound returns true if the error (or its cause) reports that a
// query matched no documents.
func ResultsNotFound(err error) bool {
	return errors.Cause(err) == mongo.ErrNoDocuments
}
