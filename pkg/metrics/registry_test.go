package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitRegistry_EnablesAndReturnsRegistry(t *testing.T) {
	t.Cleanup(reset)

	reg := InitRegistry(nil)
	assert.NotNil(t, reg)
	assert.True(t, IsEnabled())
	assert.Equal(t, reg, GetRegistry())
}

func TestIsEnabled_DefaultsFalse(t *testing.T) {
	reset()
	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
}

func TestNewServerMetrics_NoConstructorRegistered(t *testing.T) {
	reset()
	saved := newServerMetrics
	newServerMetrics = nil
	t.Cleanup(func() { newServerMetrics = saved })

	InitRegistry(nil)
	assert.Nil(t, NewServerMetrics())
}
