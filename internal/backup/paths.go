package backup

import (
	"strconv"
	"strings"
)

// recordInfix separates the config path from the sequence number.
const recordInfix = ".backup."

// RecordPath returns the path of backup record seq for the config at path.
// Returns <path>.backup.<seq>
func RecordPath(path string, seq int) string {
	return path + recordInfix + strconv.Itoa(seq)
}

// parseSeq extracts the sequence number from a record file name belonging to
// the config file named base. Anything that is not
// <base>.backup.<positive int> is rejected.
func parseSeq(base, name string) (int, bool) {
	suffix, ok := strings.CutPrefix(name, base+recordInfix)
	if !ok || suffix == "" || suffix[0] == '0' {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
