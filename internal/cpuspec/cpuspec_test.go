package cpuspec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCPUSpec(t *testing.T) {
	t.Parallel()

	spec := GetCPUSpec()
	assert.Equal(t, runtime.GOARCH, spec.Arch)
	assert.Positive(t, spec.LogicalCores)
	assert.NotEmpty(t, spec.BestVectorExtension())
}

func TestBestVectorExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "scalar", CPUSpec{}.BestVectorExtension())
	assert.Equal(t, "AVX2", CPUSpec{Features: []string{"AVX2", "AVX"}}.BestVectorExtension())
}
