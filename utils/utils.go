package utils

import "strings"

func StringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// ChunkInts splits ids into consecutive slices of at most size
// elements, preserving order. An empty input yields no chunks.
func ChunkInts(ids []int, size int) [][]int {
	if size < 1 || len(ids) == 0 {
		return nil
	}
	var chunks [][]int
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// JoinNonEmpty joins the non-empty elements of parts with sep.
func JoinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
