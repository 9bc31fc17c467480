package listener

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesselode/kira-sub000/tween"
)

func TestListener_EarPositionsStraddleListenerAlongLocalX(t *testing.T) {
	l, _ := New(0, r3.Vector{}, tween.QuatIdentity)
	left, right := l.EarPositions()
	assert.InDelta(t, -earDistance, left.X, 1e-9)
	assert.InDelta(t, earDistance, right.X, 1e-9)
	assert.InDelta(t, 0, left.Y, 1e-9)
	assert.InDelta(t, 0, right.Y, 1e-9)
}

func TestListener_SetPositionTweensToTarget(t *testing.T) {
	l, w := New(0, r3.Vector{}, tween.QuatIdentity)
	require.NoError(t, w.Write(Command{
		Kind:     CmdSetPosition,
		Position: tween.NewFixedValue(r3.Vector{X: 10}),
		Tween:    tween.DefaultTween,
	}))
	l.OnStartProcessing()
	l.Update(1.0/60.0, nil, nil)
	assert.Equal(t, 10.0, l.Position.Value().X)
}

func TestListener_UpdateEstimatesVelocity(t *testing.T) {
	l, w := New(0, r3.Vector{}, tween.QuatIdentity)
	l.Update(0.5, nil, nil)
	assert.Equal(t, r3.Vector{}, l.Velocity())

	require.NoError(t, w.Write(Command{
		Kind:     CmdSetPosition,
		Position: tween.NewFixedValue(r3.Vector{X: 2}),
		Tween:    tween.DefaultTween,
	}))
	l.OnStartProcessing()
	l.Update(0.5, nil, nil)

	assert.InDelta(t, 4.0, l.Velocity().X, 1e-9)
}

func TestListener_MarkForRemoval(t *testing.T) {
	l, _ := New(0, r3.Vector{}, tween.QuatIdentity)
	assert.False(t, l.Shared().IsMarkedForRemoval())
	l.Shared().MarkForRemoval()
	assert.True(t, l.Shared().IsMarkedForRemoval())
}
