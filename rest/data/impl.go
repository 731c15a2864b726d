package data

import (
	"context"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/utility"
)

// DBConnector is a struct that implements all of the methods which connect to
// the service layer of baseload. These methods abstract the link between the
// service and the API layers, allowing for changes in the service
// architecture without forcing changes to the API.
type DBConnector struct {
	env baseload.Environment
}

// CreateNewDBConnector is the entry point for creating a new DBConnector.
func CreateNewDBConnector(env baseload.Environment) Connector {
	return &DBConnector{
		env: env,
	}
}

func (dbc *DBConnector) GetAnalysisDefaults() baseload.AnalysisConfiguration {
	return dbc.env.GetConf().Analysis
}

func (dbc *DBConnector) GetStatus(ctx context.Context) (*model.APIStatus, error) {
	out := &model.APIStatus{Revision: utility.ToStringPtr(baseload.BuildRevision)}

	if q := dbc.env.GetQueue(); q != nil && q.Info().Started {
		stats := q.Stats(ctx)
		out.Queue = &model.APIQueueStats{
			Running:   stats.Running,
			Pending:   stats.Pending,
			Completed: stats.Completed,
			Total:     stats.Total,
		}
	}

	return out, nil
}
