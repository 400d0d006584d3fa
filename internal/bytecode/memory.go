package bytecode

// Memory holds information about the memory usage of the cache.
type Memory struct {
	usedInMb   float64
	sizeInMb   float64
	wastedInMb float64
}

func NewMemory(usedInMb, sizeInMb, wastedInMb float64) Memory {
	return Memory{
		usedInMb:   usedInMb,
		sizeInMb:   sizeInMb,
		wastedInMb: wastedInMb,
	}
}

func (m Memory) UsedInMb() float64 {
	return m.usedInMb
}

func (m Memory) WastedInMb() float64 {
	return m.wastedInMb
}

// SizeInMb returns the maximal size of the cache.
func (m Memory) SizeInMb() float64 {
	return m.sizeInMb
}

func (m Memory) FreeInMb() float64 {
	return m.sizeInMb - (m.usedInMb + m.wastedInMb)
}

func (m Memory) UsedInPercent() float64 {
	return m.percentageOf(m.usedInMb)
}

func (m Memory) WastedInPercent() float64 {
	return m.percentageOf(m.wastedInMb)
}

func (m Memory) FreeInPercent() float64 {
	return m.percentageOf(m.FreeInMb())
}

// IsFull reports whether used and wasted memory reach the cache size.
func (m Memory) IsFull() bool {
	return m.FreeInMb() <= 0
}

func (m Memory) percentageOf(valueInMb float64) float64 {
	if m.sizeInMb == 0 {
		return 0
	}
	return valueInMb / m.sizeInMb * 100
}

func bytesToMb(bytes int64) float64 {
	return float64(bytes) / 1024 / 1024
}
