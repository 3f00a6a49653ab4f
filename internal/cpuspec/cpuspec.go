// Package cpuspec reports the host CPU and the vector extensions the NSDF
// kernels can take advantage of.
package cpuspec

import (
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName    string
	Arch         string
	LogicalCores int
	Features     []string // vector extensions relevant to float32 dot products
}

// vectorFeatures lists the extensions reported, in order of preference.
var vectorFeatures = []struct {
	id   cpuid.FeatureID
	name string
}{
	{cpuid.AVX512F, "AVX512F"},
	{cpuid.AVX2, "AVX2"},
	{cpuid.FMA3, "FMA3"},
	{cpuid.AVX, "AVX"},
	{cpuid.SSE4, "SSE4.1"},
	{cpuid.ASIMD, "NEON"},
}

// GetCPUSpec returns the CPU specification of the host
func GetCPUSpec() CPUSpec {
	spec := CPUSpec{
		BrandName:    strings.TrimSpace(cpuid.CPU.BrandName),
		Arch:         runtime.GOARCH,
		LogicalCores: cpuid.CPU.LogicalCores,
	}
	if spec.LogicalCores == 0 {
		spec.LogicalCores = runtime.NumCPU()
	}
	for _, f := range vectorFeatures {
		if cpuid.CPU.Supports(f.id) {
			spec.Features = append(spec.Features, f.name)
		}
	}
	return spec
}

// BestVectorExtension returns the widest supported extension, or "scalar".
func (c CPUSpec) BestVectorExtension() string {
	if len(c.Features) == 0 {
		return "scalar"
	}
	return c.Features[0]
}
