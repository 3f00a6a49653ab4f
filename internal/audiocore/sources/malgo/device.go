package malgo

import (
	"encoding/hex"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/errors"
)

// DeviceInfo holds information about an audio capture device
type DeviceInfo struct {
	Index     int
	Name      string
	ID        string
	IsDefault bool
}

// getBackendForPlatform returns the appropriate malgo backend for the current platform
func getBackendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.Newf("unsupported operating system %s", runtime.GOOS).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSource).
			Context("os", runtime.GOOS).
			Build()
	}
}

// initContext creates a malgo context on the platform backend.
func initContext() (*malgo.AllocatedContext, error) {
	backend, err := getBackendForPlatform()
	if err != nil {
		return nil, err
	}
	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSource).
			Context("operation", "init_context").
			Context("backend", runtime.GOOS).
			Build()
	}
	return ctx, nil
}

// captureDevices lists capture devices, skipping the null device.
func captureDevices(ctx *malgo.AllocatedContext) ([]malgo.DeviceInfo, []DeviceInfo, error) {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, nil, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSource).
			Context("operation", "enumerate_devices").
			Build()
	}

	raw := make([]malgo.DeviceInfo, 0, len(infos))
	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		if strings.Contains(infos[i].Name(), "Discard all samples") {
			continue
		}
		id := infos[i].ID.String()
		if decoded, err := hexToASCII(id); err == nil {
			id = decoded
		}
		raw = append(raw, infos[i])
		devices = append(devices, DeviceInfo{
			Index:     len(devices),
			Name:      infos[i].Name(),
			ID:        id,
			IsDefault: infos[i].IsDefault == 1,
		})
	}
	return raw, devices, nil
}

// ListDevices returns the available audio capture devices
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := initContext()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	_, devices, err := captureDevices(ctx)
	return devices, err
}

// selectDevice returns the index of the device matching name. An empty name,
// "default" or "sysdefault" selects the system default, falling back to the
// first device. Otherwise exact name, decoded ID and substring matches are
// tried in that order.
func selectDevice(devices []DeviceInfo, name string) (int, error) {
	if name == "" || name == "default" || name == "sysdefault" {
		for i := range devices {
			if devices[i].IsDefault {
				return i, nil
			}
		}
		if len(devices) > 0 {
			return 0, nil
		}
	}

	for i := range devices {
		if devices[i].Name == name {
			return i, nil
		}
	}
	for i := range devices {
		if devices[i].ID == name {
			return i, nil
		}
	}
	for i := range devices {
		if strings.Contains(devices[i].Name, name) {
			return i, nil
		}
	}

	return -1, errors.New(audiocore.ErrNoDevice).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryNotFound).
		Context("device_name", name).
		Context("available_devices", len(devices)).
		Build()
}

// hexToASCII converts a hexadecimal string to an ASCII string
func hexToASCII(hexStr string) (string, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// encodingFor maps a malgo sample format to an audiocore encoding.
func encodingFor(format malgo.FormatType) (audiocore.Encoding, int, bool) {
	switch format {
	case malgo.FormatU8:
		return audiocore.EncodingU8, 8, true
	case malgo.FormatS16:
		return audiocore.EncodingS16LE, 16, true
	case malgo.FormatS24:
		return audiocore.EncodingS24LE, 24, true
	case malgo.FormatS32:
		return audiocore.EncodingS32LE, 32, true
	case malgo.FormatF32:
		return audiocore.EncodingF32LE, 32, true
	default:
		return "", 0, false
	}
}
