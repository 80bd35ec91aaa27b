// Package utils holds small helpers shared by the HTTP and service layers
// for turning page/page_size query values into bounded offsets.
package utils

import "strconv"

// AtoiDefault returns def when s is empty or not a base-10 int.
// No whitespace trimming is done.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage bounds a 1-based page and its size. page < 1 becomes 1,
// size < 1 becomes def and size > max becomes max.
func ClampPage(page, size, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = def
	}
	if size > max {
		size = max
	}
	return page, size
}

// Offset is the row offset of a clamped 1-based page.
func Offset(page, size int) int {
	return (page - 1) * size
}

// TotalPages is ceil(total/size); zero rows means zero pages.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
