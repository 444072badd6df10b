package crawler

import (
	"strconv"
	"strings"
)

// DefaultPageParam is the query parameter carrying the 1-based page index.
const DefaultPageParam = "p"

// PageURLs builds the ordered list of n listing URLs for base.
func PageURLs(base, param string, n int) []string {
	if n <= 0 {
		return nil
	}
	if param == "" {
		param = DefaultPageParam
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	prefix := base + sep + param + "="
	urls := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		urls = append(urls, prefix+strconv.Itoa(i))
	}
	return urls
}
