package leds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLine is a test double for Line that records every SetValue call,
// the same role mockGPIODLine plays in the teacher's ptt_test.go.
type mockLine struct {
	values []int
	closed bool
}

func (m *mockLine) SetValue(v int) error {
	m.values = append(m.values, v)
	return nil
}

func (m *mockLine) Close() error {
	m.closed = true
	return nil
}

func newMockRing() (*Ring, [9]*mockLine) {
	var mocks [9]*mockLine
	var lines [9]Line
	for i := range mocks {
		mocks[i] = &mockLine{}
		lines[i] = mocks[i]
	}
	return NewRingWithLines(lines), mocks
}

// TestScenario6_RingCyclesThroughPhases matches spec section 8 Scenario 6:
// starting at phase 0, five successive Advance calls visit 1,2,3,4,0.
func TestScenario6_RingCyclesThroughPhases(t *testing.T) {
	ring, mocks := newMockRing()
	require.Equal(t, 0, ring.Phase())

	wantPhases := []int{1, 2, 3, 4, 0}
	for _, want := range wantPhases {
		require.NoError(t, ring.Advance())
		assert.Equal(t, want, ring.Phase())
		if want == 4 {
			// Phase 4's table row: led0=0,0,128 led1=128,0,0 led2=0,128,0.
			assert.Equal(t, []int{0, 0, 128, 128, 0, 0, 0, 128, 0}, last9(mocks))
		}
	}
}

func TestScenario6_StopAnimationZeroesAllNineAndResetsPhase(t *testing.T) {
	ring, mocks := newMockRing()
	require.NoError(t, ring.Advance())
	require.NoError(t, ring.Advance())
	require.NotEqual(t, 0, ring.Phase())

	require.NoError(t, ring.StopAnimation())

	assert.Equal(t, 0, ring.Phase())
	for _, m := range mocks {
		require.NotEmpty(t, m.values)
		assert.Equal(t, 0, m.values[len(m.values)-1])
	}
}

func TestRingCloseClosesEveryLine(t *testing.T) {
	ring, mocks := newMockRing()
	require.NoError(t, ring.Close())
	for _, m := range mocks {
		assert.True(t, m.closed)
	}
}

func last9(mocks [9]*mockLine) []int {
	out := make([]int, 9)
	for i, m := range mocks {
		out[i] = m.values[len(m.values)-1]
	}
	return out
}
