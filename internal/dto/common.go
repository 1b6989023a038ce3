package dto

// TimeLayout is the wire format for every timestamp in responses.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// Page normalizes pagination parameters.
func Page(page, limit, defLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defLimit
	}
	return page, limit
}
