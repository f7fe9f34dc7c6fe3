package lsm_tree

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	tablePrefix = "table_"
	tableSuffix = ".sst"
	tempSuffix  = ".tmp"

	// CompactedGeneration is the generation of the table produced by
	// compaction. It is older than any flushed generation.
	CompactedGeneration int64 = 0
)

func tableFileName(generation int64) string {
	return fmt.Sprintf("%s%d%s", tablePrefix, generation, tableSuffix)
}

func tempFileName(generation int64) string {
	return fmt.Sprintf("%s%d%s", tablePrefix, generation, tempSuffix)
}

// parseFileName extracts the generation of a table file name and reports
// whether the file is an unfinished temporary file.
func parseFileName(name string) (generation int64, temp bool, ok bool) {
	rest, found := strings.CutPrefix(name, tablePrefix)
	if !found {
		return 0, false, false
	}
	switch {
	case strings.HasSuffix(rest, tableSuffix):
		rest = strings.TrimSuffix(rest, tableSuffix)
	case strings.HasSuffix(rest, tempSuffix):
		rest = strings.TrimSuffix(rest, tempSuffix)
		temp = true
	default:
		return 0, false, false
	}
	generation, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || generation < 0 {
		return 0, false, false
	}
	return generation, temp, true
}
