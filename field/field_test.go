package field

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestInvertOrZero(t *testing.T) {
	t.Parallel()

	assert.True(t, IsZero(InvertOrZero(Zero)))

	for _, v := range []uint64{1, 2, 7, 1 << 40} {
		e := FromUint64(v)
		assert.Equal(t, One, Mul(e, InvertOrZero(e)))
	}
}

func TestRLC(t *testing.T) {
	t.Parallel()

	r := FromUint64(10)

	assert.Equal(t, FromUint64(321), RLC([]Element{FromUint64(1), FromUint64(2), FromUint64(3)}, r))
	assert.Equal(t, FromUint64(123), RLCBytes([]byte{1, 2, 3}, r))
	assert.True(t, IsZero(RLC(nil, r)))
}

func TestRLC_Linear(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(tt *rapid.T) {
		var (
			n  = rapid.IntRange(1, 8).Draw(tt, "number of values")
			a  = rapid.SliceOfN(rapid.Uint64(), n, n).Draw(tt, "first values")
			b  = rapid.SliceOfN(rapid.Uint64(), n, n).Draw(tt, "second values")
			r  = FromUint64(rapid.Uint64().Draw(tt, "randomness"))
			ea = make([]Element, n)
			eb = make([]Element, n)
			es = make([]Element, n)
		)

		for i := 0; i < n; i++ {
			ea[i] = FromUint64(a[i])
			eb[i] = FromUint64(b[i])
			es[i] = Add(ea[i], eb[i])
		}

		if got := RLC(es, r); !got.Equal(ptr(Add(RLC(ea, r), RLC(eb, r)))) {
			tt.Fatalf("rlc is not linear")
		}
	})
}

func TestWordLoHi(t *testing.T) {
	t.Parallel()

	w := new(uint256.Int).Lsh(uint256.NewInt(3), 128)
	w.Add(w, uint256.NewInt(5))

	lo, hi := WordLoHi(w)

	assert.Equal(t, FromUint64(5), lo)
	assert.Equal(t, FromUint64(3), hi)

	w = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	lo, hi = WordLoHi(w)

	assert.Equal(t, FromBig(w.ToBig()), lo)
	assert.True(t, hi.IsZero())
}

func ptr(e Element) *Element {
	return &e
}
