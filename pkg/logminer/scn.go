package logminer

import "fmt"

// SCN is an Oracle System Change Number: a totally-ordered, unsigned
// change identifier. Every database version's maximum sentinel value
// (see MaxSCN11_2/MaxSCN12_2/MaxSCN19_6) fits inside a uint64, so unlike
// the arbitrary-precision decimal used upstream, a plain unsigned integer
// is sufficient here; comparisons are always numeric.
type SCN uint64

// ZeroSCN is the sentinel meaning "unset".
const ZeroSCN SCN = 0

const (
	// MaxSCN11_2 is the open-ended "current redo" sentinel on Oracle 11.2.
	MaxSCN11_2 SCN = 1<<48 - 1
	// MaxSCN12_2 is the open-ended "current redo" sentinel on Oracle 12.2+.
	MaxSCN12_2 SCN = 1<<64 - 1
	// MaxSCN19_6 is the open-ended "current redo" sentinel on Oracle 19.6+.
	MaxSCN19_6 SCN = 9295429630892703743
)

// IsZero reports whether the SCN is the unset sentinel.
func (s SCN) IsZero() bool {
	return s == ZeroSCN
}

// Compare returns -1, 0 or 1 as s is numerically less than, equal to, or
// greater than other.
func (s SCN) Compare(other SCN) int {
	switch {
	case s < other:
		return -1
	case s > other:
		return 1
	default:
		return 0
	}
}

// Max returns the larger of s and other.
func Max(s, other SCN) SCN {
	if s > other {
		return s
	}
	return other
}

// Min returns the smaller of s and other.
func Min(s, other SCN) SCN {
	if s < other {
		return s
	}
	return other
}

// Add returns s + delta. Callers are responsible for keeping delta within
// a sane batch-size range. There is no overflow check: a sum past the
// uint64 ceiling wraps around, and the 12.2+ sentinel (MaxSCN12_2) is that
// ceiling itself.
func (s SCN) Add(delta uint64) SCN {
	return s + SCN(delta)
}

// Sub returns s - other, or zero if other >= s.
func (s SCN) Sub(other SCN) SCN {
	if other >= s {
		return 0
	}
	return s - other
}

func (s SCN) String() string {
	return fmt.Sprintf("%d", uint64(s))
}

// MaxSentinelForVersion returns the "open-ended current redo" sentinel for
// a given Oracle major/maintenance version, mirroring
// LogMinerHelper#getDatabaseMaxScnValue.
func MaxSentinelForVersion(major, maintenance int) (SCN, error) {
	switch {
	case major > 19 || (major == 19 && maintenance >= 6):
		return MaxSCN19_6, nil
	case major > 12 || (major == 12 && maintenance >= 2):
		return MaxSCN12_2, nil
	case major == 11 && maintenance >= 2, major == 12 && maintenance < 2:
		return MaxSCN11_2, nil
	default:
		return 0, fmt.Errorf("max SCN cannot be resolved for database version %d.%d", major, maintenance)
	}
}
