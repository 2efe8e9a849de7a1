package logminer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSCNCompare(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     SCN
		expected int
	}{
		{"less", 1, 2, -1},
		{"greater", 10, 2, 1},
		{"equal", 5, 5, 0},
		{"zero vs zero", 0, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Compare(tc.b))
		})
	}
}

func TestSCNMaxMin(t *testing.T) {
	assert.Equal(t, SCN(10), Max(10, 3))
	assert.Equal(t, SCN(10), Max(3, 10))
	assert.Equal(t, SCN(3), Min(10, 3))
	assert.Equal(t, SCN(3), Min(3, 10))
}

func TestSCNAddSub(t *testing.T) {
	assert.Equal(t, SCN(15), SCN(10).Add(5))
	assert.Equal(t, SCN(5), SCN(10).Sub(5))
	assert.Equal(t, SCN(0), SCN(5).Sub(10), "Sub must not underflow")
	assert.Equal(t, SCN(0), SCN(5).Sub(5))
}

func TestSCNIsZero(t *testing.T) {
	assert.True(t, ZeroSCN.IsZero())
	assert.False(t, SCN(1).IsZero())
}

func TestMaxSentinelForVersion(t *testing.T) {
	testCases := []struct {
		name              string
		major, maintenance int
		expected          SCN
		wantErr           bool
	}{
		{"11.2", 11, 2, MaxSCN11_2, false},
		{"12.1 falls back to 11.2", 12, 1, MaxSCN11_2, false},
		{"12.2", 12, 2, MaxSCN12_2, false},
		{"19.6", 19, 6, MaxSCN19_6, false},
		{"21.0 newer than 19.6", 21, 0, MaxSCN19_6, false},
		{"10.2 unsupported", 10, 2, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MaxSentinelForVersion(tc.major, tc.maintenance)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
