package persistence

import "strings"

// sortSpec whitelists the columns a list query may order by. Column names
// are interpolated into ORDER BY, so nothing else gets through.
type sortSpec struct {
	columns  map[string]bool
	column   string
	ascFirst bool
}

var (
	// listings default to the auctions closing soonest
	productSort = sortSpec{
		columns: map[string]bool{
			"created_at": true, "starts_at": true, "ends_at": true, "title": true,
			"starting_price": true, "current_bid_price": true, "bid_count": true,
		},
		column:   "ends_at",
		ascFirst: true,
	}
	userSort = sortSpec{
		columns: map[string]bool{
			"created_at": true, "updated_at": true, "username": true, "email": true,
			"role": true, "status": true, "last_login_at": true,
		},
		column: "created_at",
	}
)

// orderBy renders the ORDER BY clause for the requested column and
// direction, falling back to the defaults
func (s sortSpec) orderBy(column, dir string) string {
	column = strings.TrimSpace(column)
	if !s.columns[column] {
		column = s.column
	}
	asc := s.ascFirst
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "asc":
		asc = true
	case "desc":
		asc = false
	}
	if asc {
		return column + " ASC"
	}
	return column + " DESC"
}
