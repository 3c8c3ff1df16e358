package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimulatedDefaults(t *testing.T) {
	p := NewSimulated()
	assert.Equal(t, 1500*time.Millisecond, p.Latency)
	assert.InDelta(t, 0.10, p.DeclineRate, 1e-9)
	assert.NotNil(t, p.roll)
}

func TestChargeZeroValueApproves(t *testing.T) {
	var p Simulated
	res, err := p.Charge(context.Background(), "TXN-1", "10.00")
	require.NoError(t, err)
	assert.True(t, res.Approved)
}

func TestChargeAlwaysApprovesAtZeroRate(t *testing.T) {
	p := &Simulated{Latency: 0, DeclineRate: 0, roll: func() float64 { return 0.999 }}
	for i := 0; i < 50; i++ {
		res, err := p.Charge(context.Background(), "TXN-1", "10.00")
		require.NoError(t, err)
		assert.True(t, res.Approved)
		assert.Empty(t, res.Reason)
	}
}

func TestChargeAlwaysDeclinesAtFullRate(t *testing.T) {
	p := &Simulated{Latency: 0, DeclineRate: 1, roll: func() float64 { return 0.0 }}
	res, err := p.Charge(context.Background(), "TXN-1", "10.00")
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, "card_declined", res.Reason)
}

func TestChargeRollBoundary(t *testing.T) {
	// A roll exactly at the rate is an approval: decline only below it.
	p := &Simulated{Latency: 0, DeclineRate: 0.10, roll: func() float64 { return 0.10 }}
	res, err := p.Charge(context.Background(), "TXN-1", "10.00")
	require.NoError(t, err)
	assert.True(t, res.Approved)

	p.roll = func() float64 { return 0.0999 }
	res, err = p.Charge(context.Background(), "TXN-1", "10.00")
	require.NoError(t, err)
	assert.False(t, res.Approved)
}
