package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/linkup/backend/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// listQuery captures the search and pagination parameters applied to
// user-list responses.
type listQuery struct {
	search   string
	page     int
	pageSize int
}

func parseListQuery(r *http.Request) listQuery {
	q := listQuery{
		search:   strings.TrimSpace(r.URL.Query().Get("search")),
		page:     1,
		pageSize: defaultPageSize,
	}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			q.page = page
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			q.pageSize = size
		}
	}
	if q.pageSize > maxPageSize {
		q.pageSize = maxPageSize
	}

	return q
}

// apply filters users by case-insensitive name substring, then slices out the
// requested page. It returns the page along with the total match count.
func (q listQuery) apply(users []models.User) ([]models.User, int) {
	filtered := users
	if q.search != "" {
		needle := strings.ToLower(q.search)
		filtered = make([]models.User, 0, len(users))
		for _, user := range users {
			if strings.Contains(strings.ToLower(user.Name), needle) {
				filtered = append(filtered, user)
			}
		}
	}

	total := len(filtered)
	start := (q.page - 1) * q.pageSize
	if start >= total {
		return []models.User{}, total
	}
	end := start + q.pageSize
	if end > total {
		end = total
	}

	return filtered[start:end], total
}
