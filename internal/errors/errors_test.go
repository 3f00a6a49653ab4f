package errors

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	err := fmt.Errorf("test error")
	ee := New(err).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Nil(t, ee.GetContext())
}

func TestBuilderChain(t *testing.T) {
	ee := Newf("device %s failed", "hw:0").
		Component("audiocore").
		Category(CategoryAudioSource).
		Context("operation", "init_device").
		Build()

	assert.Equal(t, "device hw:0 failed", ee.Error())
	assert.Equal(t, "audiocore", ee.GetComponent())
	assert.Equal(t, "audio-source", ee.GetCategory())
	assert.Equal(t, "init_device", ee.GetContext()["operation"])

	// context copy must not leak mutations back into the error
	ctx := ee.GetContext()
	ctx["operation"] = "changed"
	assert.Equal(t, "init_device", ee.GetContext()["operation"])
}

func TestNilCauseUsesContextMessage(t *testing.T) {
	ee := New(nil).
		Category(CategoryState).
		Context("error", "source not running").
		Build()
	assert.Equal(t, "source not running", ee.Error())

	bare := New(nil).Category(CategoryResource).Build()
	assert.Equal(t, "resource", bare.Error())
}

func TestSentinelMatching(t *testing.T) {
	sentinel := New(nil).Component("audiocore").Category(CategoryNotFound).Build()

	other := New(fmt.Errorf("no capture device")).
		Component("audiocore").
		Category(CategoryNotFound).
		Build()
	wrapped := fmt.Errorf("startup: %w", other)

	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsCategory(wrapped, CategoryValidation))

	differentComponent := New(nil).Component("pipeline").Category(CategoryNotFound).Build()
	assert.False(t, Is(other, differentComponent))
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := NewStd("root cause")
	ee := Wrap(cause).Category(CategoryFileIO).Build()
	assert.True(t, Is(ee, cause))
	assert.Equal(t, cause, Unwrap(ee))
}

func TestErrorHooks(t *testing.T) {
	t.Cleanup(ClearErrorHooks)

	var calls atomic.Int32
	var lastCategory atomic.Value
	AddErrorHook(func(ee *EnhancedError) {
		calls.Add(1)
		lastCategory.Store(ee.Category)
	})
	AddErrorHook(nil)

	_ = New(NewStd("publish failed")).Category(CategoryMQTTPublish).Build()
	require.Equal(t, int32(1), calls.Load())
	assert.Equal(t, CategoryMQTTPublish, lastCategory.Load())

	ClearErrorHooks()
	_ = New(NewStd("ignored")).Build()
	assert.Equal(t, int32(1), calls.Load())
}

func TestValidationError(t *testing.T) {
	ee := ValidationError("window size must be even")
	assert.Equal(t, CategoryValidation, ee.Category)
	assert.EqualError(t, ee, "window size must be even")
}
