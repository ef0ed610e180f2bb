package query

import "fmt"

// Chunk splits items into parts contiguous, non-overlapping partitions that
// concatenate back to items.
//
// Partition sizes differ by at most one. When len(items) is not a multiple
// of parts, the extra elements go to the earliest partitions, so early
// partitions are the larger ones. No partition is empty, which requires
// 1 <= parts <= len(items); anything else returns [ErrInvalidPartitionCount].
//
// Every partition has its capacity clipped to its length: appending to one
// never overwrites the next.
func Chunk[T any](items []T, parts int) ([][]T, error) {
	if parts < 1 || parts > len(items) {
		return nil, fmt.Errorf("%w: %d partitions for %d items", ErrInvalidPartitionCount, parts, len(items))
	}

	size := len(items) / parts
	extra := len(items) % parts

	chunks := make([][]T, parts)
	start := 0

	for i := range chunks {
		end := start + size
		if i < extra {
			end++
		}

		chunks[i] = items[start:end:end]
		start = end
	}

	return chunks, nil
}
