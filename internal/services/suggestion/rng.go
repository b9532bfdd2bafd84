package suggestion

// XorShift32 is a small deterministic PRNG.
type XorShift32 struct {
	state uint32
}

func NewXorShift32(seed uint32) *XorShift32 {
	if seed == 0 {
		seed = 0x12345678
	}
	return &XorShift32{state: seed}
}

func (x *XorShift32) Next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}

// Intn returns a value in [0, n).
func (x *XorShift32) Intn(n int) int {
	return int(x.Next() % uint32(n))
}

func shuffle(vals []int, rng *XorShift32) {
	for i := len(vals) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		vals[i], vals[j] = vals[j], vals[i]
	}
}
