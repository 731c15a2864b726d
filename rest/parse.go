package rest

import (
	"net/url"
	"strconv"

	"github.com/evergreen-ci/baseload/util"
	"github.com/pkg/errors"
)

const defaultAnalysesLimit = 20

func parseTimeRange(vals url.Values, start, end string) (util.TimeRange, error) {
	tr, err := util.ParseTimeRange(vals.Get(start), vals.Get(end))
	return tr, errors.WithStack(err)
}

func parseLimit(vals url.Values, defaultLimit int) (int, error) {
	limitArg := vals.Get("limit")
	if limitArg == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitArg)
	if err != nil {
		return 0, errors.Wrapf(err, "'%s' is not a valid limit", limitArg)
	}
	if limit < 0 {
		return 0, errors.Errorf("limit must not be negative, not %d", limit)
	}

	return limit, nil
}

func parseBool(vals url.Values, key string) (bool, error) {
	arg := vals.Get(key)
	if arg == "" {
		return false, nil
	}

	out, err := strconv.ParseBool(arg)
	return out, errors.Wrapf(err, "'%s' is not a valid value for '%s'", arg, key)
}
