package devices

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/pitchtrack/internal/audiocore/sources/malgo"
)

func TestPrintDevices(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printDevices(&buf, []malgo.DeviceInfo{
		{Index: 0, Name: "Built-in Microphone", ID: "6d69633a30", IsDefault: true},
		{Index: 1, Name: "USB Audio", ID: "7573623a31"},
	})
	out := buf.String()
	assert.Contains(t, out, "*  0  Built-in Microphone")
	assert.Contains(t, out, "   1  USB Audio")

	buf.Reset()
	printDevices(&buf, nil)
	assert.Equal(t, "No capture devices found\n", buf.String())
}
