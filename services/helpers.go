package services

import "time"

const (
	minPageSize = 1
	maxPageSize = 100
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// clampPage normalizes pagination input: page_number >= 1, page_size in
// [1,100].
func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < minPageSize {
		size = minPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func numPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	pages := int(total) / size
	if int(total)%size != 0 {
		pages++
	}
	return pages
}
