package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverrideState_FieldsApplyIndependently(t *testing.T) {
	var o OverrideState

	got := o.SetManual(nil, ptr(true))
	assert.True(t, got.Enabled)
	assert.Nil(t, got.LastValues, "enabling without values must not invent values")

	got = o.SetManual(Values{Temperature: 99}, nil)
	assert.True(t, got.Enabled, "supplying values must keep the flag")
	assert.Equal(t, Values{Temperature: 99}, got.LastValues)

	got = o.SetManual(nil, ptr(false))
	assert.False(t, got.Enabled)
	assert.Equal(t, Values{Temperature: 99}, got.LastValues, "disabling must keep values")
}

func TestOverrideState_NoRangeValidation(t *testing.T) {
	var o OverrideState

	got := o.SetManual(Values{Pressure: -5000, Light: 1e6}, ptr(true))

	assert.Equal(t, -5000.0, got.LastValues[Pressure])
	assert.Equal(t, 1e6, got.LastValues[Light])
}

func TestOverrideState_Clear(t *testing.T) {
	var o OverrideState
	o.SetManual(Values{Humidity: 12}, ptr(true))

	o.Clear()

	assert.Equal(t, Override{}, o.Snapshot())
}

func TestOverrideState_SnapshotIsCopy(t *testing.T) {
	var o OverrideState
	in := Values{Temperature: 21}
	o.SetManual(in, ptr(true))

	in[Temperature] = 0
	snap := o.Snapshot()
	snap.LastValues[Temperature] = 1

	assert.Equal(t, 21.0, o.Snapshot().LastValues[Temperature])
}
