package gekko

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_ButtonEdges(t *testing.T) {
	input := &Input{}

	input.setButton(KeySpace, true)
	assert.True(t, input.Pressed[KeySpace])
	assert.True(t, input.JustPressed[KeySpace])

	input.setButton(KeySpace, true)
	assert.True(t, input.Pressed[KeySpace])
	assert.False(t, input.JustPressed[KeySpace], "held keys are only just pressed once")

	input.setButton(KeySpace, false)
	assert.False(t, input.Pressed[KeySpace])
	assert.True(t, input.JustReleased[KeySpace])

	input.setButton(KeySpace, false)
	assert.False(t, input.JustReleased[KeySpace])
}

func TestInput_CursorDelta(t *testing.T) {
	input := &Input{}

	input.moveCursor(100, 50)
	assert.Zero(t, input.MouseDeltaX, "first sample has no motion")
	assert.Zero(t, input.MouseDeltaY)

	input.moveCursor(110, 45)
	assert.Equal(t, 10.0, input.MouseDeltaX)
	assert.Equal(t, -5.0, input.MouseDeltaY)

	input.moveCursor(110, 45)
	assert.Zero(t, input.MouseDeltaX)
}

func TestInput_ScrollPerFrame(t *testing.T) {
	input := &Input{}
	input.pushScroll(0, 1)
	input.pushScroll(0, 2)
	assert.Zero(t, input.ScrollDelta(), "events are published at frame start")

	input.beginFrame()
	assert.Len(t, input.ScrollEvents, 2)
	assert.Equal(t, float32(3), input.ScrollDelta())

	input.beginFrame()
	assert.Empty(t, input.ScrollEvents)
	assert.Zero(t, input.ScrollDelta())
}
