/*
Package baseload holds application level constants, configuration, and the
shared environment for the baseload service, which detects shifts in the
mean energy consumption of metered buildings.
*/
package baseload

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

const (
	// ShortDateFormat is the layout used when reporting change dates.
	ShortDateFormat = "2006-01-02"

	defaultDatabaseName = "baseload"
	defaultMongoDBURI   = "mongodb://localhost:27017"
)
