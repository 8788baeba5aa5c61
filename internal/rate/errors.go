package rate

import "errors"

// ErrRateLimited is returned by both gates when the caller is over budget.
var ErrRateLimited = errors.New("rate limited")
