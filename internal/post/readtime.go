package post

import (
	"fmt"
	"strings"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// ReadingTime estimates how long body takes to read. Non-empty bodies take
// at least one minute.
func ReadingTime(body string) (int, string) {
	words := len(strings.Fields(body))
	if words == 0 {
		return 0, "0 min read"
	}
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	return minutes, fmt.Sprintf("%d min read", minutes)
}
