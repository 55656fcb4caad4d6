package core

import (
	"net/url"
	"strconv"
	"strings"

	"hospital-portal/pkg"
)

// Entity names a content type.  The value doubles as the URL segment and
// the notification prefix.
type Entity string

const (
	EntityArticles  Entity = "articles"
	EntityMedicines Entity = "medicines"
	EntitySchedules Entity = "schedules"
	EntityNotes     Entity = "notes"
)

// DefaultSort is used whenever the requested sort key is unknown.
const DefaultSort = "newest"

// PageSize is the number of rows per listing page.
const PageSize = 10

var sortKeys = map[Entity][]string{
	EntityArticles:  {"newest", "oldest", "title"},
	EntityMedicines: {"newest", "oldest", "name"},
	EntitySchedules: {"newest", "oldest", "doctor", "day"},
	EntityNotes:     {"newest", "oldest", "title"},
}

// SortKeys returns the sort keys accepted by the entity's listings.
func SortKeys(e Entity) []string {
	return append([]string(nil), sortKeys[e]...)
}

// NormalizeSort maps key onto one of the entity's sort keys.
func NormalizeSort(e Entity, key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, k := range sortKeys[e] {
		if k == key {
			return k
		}
	}
	return DefaultSort
}

// ParseListQuery reads search, sort and page from a query string.
func ParseListQuery(e Entity, values url.Values) pkg.ListQuery {
	page, err := strconv.Atoi(values.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return pkg.ListQuery{
		Search:  strings.TrimSpace(values.Get("search")),
		Sort:    NormalizeSort(e, values.Get("sort")),
		Page:    page,
		PerPage: PageSize,
	}
}

// PageURL builds the link target of another page of the same listing,
// keeping the search and sort parameters.
func PageURL(path string, q pkg.ListQuery, page int) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" && q.Sort != DefaultSort {
		v.Set("sort", q.Sort)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// Weekdays lists schedule days in calendar order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayIndex returns the position of day in Weekdays, or -1.
func DayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// Slugify turns a title into a lowercase URL segment.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Matches reports whether any of fields contains search, ignoring case.
// An empty search matches everything.
func Matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}
