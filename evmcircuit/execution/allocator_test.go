package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
)

func TestCountdown(t *testing.T) {
	t.Parallel()

	cases := []struct {
		height int
		want   []uint64
	}{
		{1, []uint64{0}},
		{2, []uint64{0, 1}},
		{4, []uint64{0, 3, 2, 1}},
	}

	for _, c := range cases {
		var got []uint64
		for idx := 0; idx < c.height; idx++ {
			got = append(got, countdown(idx, c.height))
		}

		assert.Equal(t, c.want, got)
	}
}

// the countdown of a sequence of blocks is zero exactly at block starts and
// decreases by one towards every next start
func TestCountdown_Sequence(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		heights := rapid.SliceOfN(rapid.IntRange(1, param.MaxStepHeight), 1, 32).Draw(t, "heights")

		var (
			values []uint64
			starts []bool
		)

		for _, h := range heights {
			for idx := 0; idx < h; idx++ {
				values = append(values, countdown(idx, h))
				starts = append(starts, idx == 0)
			}
		}

		// row after the last block
		values = append(values, 0)
		starts = append(starts, true)

		for row := 0; row+1 < len(values); row++ {
			if starts[row] != (values[row] == 0) {
				t.Fatalf("row %d: start %t with countdown %d", row, starts[row], values[row])
			}

			if !starts[row] && values[row+1] != values[row]-1 {
				t.Fatalf("row %d: countdown %d followed by %d", row, values[row], values[row+1])
			}
		}
	})
}
