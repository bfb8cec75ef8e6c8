package query

import "songbook/models"

// TotalPages is ceil(total/limit), never less than 1.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	pages := total / int64(limit)
	if total%int64(limit) > 0 {
		pages++
	}
	return int(pages)
}

// Paginate derives page metadata for a request whose predicate matched
// total records. The page number is echoed as requested, even past the
// last page.
func Paginate(total int64, d Descriptor) models.PaginationMeta {
	totalPages := TotalPages(total, d.Limit)
	return models.PaginationMeta{
		Total:       total,
		Page:        d.Page,
		Limit:       d.Limit,
		TotalPages:  totalPages,
		HasNextPage: d.Page < totalPages,
		HasPrevPage: d.Page > 1,
		SortBy:      string(d.Sort.Field),
		SortOrder:   string(d.Sort.Order),
	}
}

// Page assembles the list response from the total match count and the
// records already windowed by the store.
func Page(total int64, songs []models.Song, d Descriptor) models.SongsResponse {
	if songs == nil {
		songs = []models.Song{}
	}
	return models.SongsResponse{
		Data:       songs,
		Pagination: Paginate(total, d),
	}
}

// Window returns the bounds of the page [offset, offset+limit) within n
// ordered records, clamped to n.
func Window(n, offset, limit int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset >= n {
		return n, n
	}
	end = n
	if limit > 0 && limit < n-offset {
		end = offset + limit
	}
	return offset, end
}
