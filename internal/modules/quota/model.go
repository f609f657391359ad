package quota

import "errors"

// ErrQuotaExceeded is returned when a user has no generations left for the
// current month.
var ErrQuotaExceeded = errors.New("generation quota exceeded")

// DefaultAllowance is the number of itinerary generations granted per month.
const DefaultAllowance = 50
