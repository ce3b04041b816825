package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMetrics(t *testing.T) {
	IncrAnalyzeRequests()
	AddKeyRotations(2)
	AddKeyRotations(-1)
	out := FormatMetrics()
	for _, k := range metricKeys {
		assert.Contains(t, out, k+" ")
	}
	assert.GreaterOrEqual(t, GetMetrics()["key_rotations"], int64(2))
}
