package score

// Trophy thresholds as fractions of a song's max score.
const (
	GoldThreshold     = 0.55
	PlatinumThreshold = 0.80
	DiamondThreshold  = 0.95
)

// Trophy is a score tier, in ascending order.
type Trophy int

const (
	Gold Trophy = iota
	Platinum
	Diamond
)

// Trophies lists every tier with its threshold, lowest first.
var Trophies = []struct {
	Trophy    Trophy
	Threshold float64
}{
	{Gold, GoldThreshold},
	{Platinum, PlatinumThreshold},
	{Diamond, DiamondThreshold},
}

func (t Trophy) String() string {
	switch t {
	case Gold:
		return "gold"
	case Platinum:
		return "platinum"
	case Diamond:
		return "diamond"
	}
	return "unknown"
}

// Result is the end-of-song verdict.
type Result int

const (
	Bombed Result = iota
	Decent
	Great
	Legendary
)

func (r Result) String() string {
	switch r {
	case Bombed:
		return "BOMBED"
	case Decent:
		return "DECENT"
	case Great:
		return "GREAT"
	case Legendary:
		return "LEGENDARY"
	}
	return "UNKNOWN"
}

// ResultFor maps a score fraction (0..1) to a Result.
func ResultFor(percent float64) Result {
	switch {
	case percent >= DiamondThreshold:
		return Legendary
	case percent >= PlatinumThreshold:
		return Great
	case percent >= GoldThreshold:
		return Decent
	}
	return Bombed
}
