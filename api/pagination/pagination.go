package pagination

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Query is the offset/limit window of a list request.
type Query struct {
	Start int `form:"start"`
	Limit int `form:"limit"`
}

// Normalize clamps the window into the served range.
func (q *Query) Normalize() {
	if q.Start < 0 {
		q.Start = 0
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
}

// Result is one page of a list response.
type Result struct {
	Data  any   `json:"data"`
	Total int64 `json:"total"`
}
