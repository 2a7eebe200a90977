package career

import (
	"errors"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go-sightread/debug"
	"go-sightread/score"
)

// ErrNoActiveCareer is returned by operations that need a running career.
var ErrNoActiveCareer = errors.New("no active career")

// Fan economy.
const (
	StartingFans   = 100
	BombPenalty    = 30
	GreatBonus     = 20
	LegendaryBonus = 50
	VenueBonus     = 100

	FirstVenue = 1
	LastVenue  = 5
)

// State is where the career stands.
type State int

const (
	Inactive State = iota
	Playing
	WorldTourComplete
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case WorldTourComplete:
		return "world-tour-complete"
	}
	return "inactive"
}

// Outcome describes what one set result or skip did to the career.
type Outcome struct {
	Result            score.Result
	FanDelta          int // including any venue bonus
	Advanced          bool
	VenueComplete     bool
	CompletedVenue    int
	CareerOver        bool
	WorldTourComplete bool
	SkipEarned        bool
}

// Career tracks fans and venue progress.
type Career struct {
	fans           int
	currentVenue   int
	currentSet     int
	venuesUnlocked int
	active         bool
	canSkipNext    bool
	worldTour      bool
	setsCompleted  map[int]map[int]bool
	log            debug.Logger
}

// New returns a career that has never been started.
func New(log debug.Logger) *Career {
	if log == nil {
		log = debug.Nop
	}
	return &Career{
		currentVenue:   FirstVenue,
		venuesUnlocked: FirstVenue,
		setsCompleted:  make(map[int]map[int]bool),
		log:            log,
	}
}

// Start begins a fresh career at the first venue.
func (c *Career) Start() {
	c.fans = StartingFans
	c.currentVenue = FirstVenue
	c.currentSet = 0
	c.venuesUnlocked = FirstVenue
	c.active = true
	c.canSkipNext = false
	c.worldTour = false
	c.setsCompleted = make(map[int]map[int]bool)
	c.log.Log("career", "started with %d fans", c.fans)
}

func (c *Career) Fans() int           { return c.fans }
func (c *Career) CurrentVenue() int   { return c.currentVenue }
func (c *Career) CurrentSet() int     { return c.currentSet }
func (c *Career) VenuesUnlocked() int { return c.venuesUnlocked }
func (c *Career) Active() bool        { return c.active }
func (c *Career) CanSkipNext() bool   { return c.canSkipNext }

func (c *Career) State() State {
	switch {
	case c.worldTour:
		return WorldTourComplete
	case c.active:
		return Playing
	}
	return Inactive
}

// SetsCompleted returns the completed set indices for a venue, ascending.
func (c *Career) SetsCompleted(venue int) []int {
	sets := maps.Keys(c.setsCompleted[venue])
	slices.Sort(sets)
	return sets
}

// ProcessSetResult applies a finished set's score fraction. numSets is the
// number of sets at the current venue.
func (c *Career) ProcessSetResult(percent float64, numSets int) (Outcome, error) {
	if !c.active {
		return Outcome{}, ErrNoActiveCareer
	}
	out := Outcome{Result: score.ResultFor(percent)}

	switch out.Result {
	case score.Bombed:
		loss := min(BombPenalty, c.fans)
		c.fans -= loss
		out.FanDelta = -loss
		if c.fans == 0 {
			c.active = false
			out.CareerOver = true
			c.log.Log("career", "career over at venue %d set %d", c.currentVenue, c.currentSet)
		}
	case score.Decent:
		c.advance(numSets, &out)
	case score.Great:
		c.fans += GreatBonus
		out.FanDelta = GreatBonus
		c.advance(numSets, &out)
	case score.Legendary:
		c.fans += LegendaryBonus
		out.FanDelta = LegendaryBonus
		c.canSkipNext = true
		out.SkipEarned = true
		c.advance(numSets, &out)
	}
	c.log.Log("career", "%s: fans %+d -> %d, venue %d set %d",
		out.Result, out.FanDelta, c.fans, c.currentVenue, c.currentSet)
	return out, nil
}

// UseSkip spends the skip token, completing the current set as DECENT.
func (c *Career) UseSkip(numSets int) (bool, error) {
	if !c.active {
		return false, ErrNoActiveCareer
	}
	if !c.canSkipNext {
		return false, nil
	}
	c.canSkipNext = false
	out := Outcome{Result: score.Decent}
	c.advance(numSets, &out)
	c.log.Log("career", "skip used, venue %d set %d", c.currentVenue, c.currentSet)
	return true, nil
}

func (c *Career) advance(numSets int, out *Outcome) {
	c.markComplete(c.currentVenue, c.currentSet)
	c.currentSet++
	out.Advanced = true
	if c.currentSet < numSets {
		return
	}

	c.fans += VenueBonus
	out.FanDelta += VenueBonus
	out.VenueComplete = true
	out.CompletedVenue = c.currentVenue

	if c.currentVenue < LastVenue {
		c.currentVenue++
		c.venuesUnlocked = max(c.venuesUnlocked, c.currentVenue)
		c.currentSet = 0
		return
	}
	c.worldTour = true
	c.active = false
	out.WorldTourComplete = true
	c.log.Log("career", "world tour complete with %d fans", c.fans)
}

func (c *Career) markComplete(venue, set int) {
	if c.setsCompleted[venue] == nil {
		c.setsCompleted[venue] = make(map[int]bool)
	}
	c.setsCompleted[venue][set] = true
}

// IsVenueUnlocked reports whether a venue may be entered.
func (c *Career) IsVenueUnlocked(venue int) bool {
	return venue >= FirstVenue && venue <= c.venuesUnlocked
}

// IsSetUnlocked reports whether a set may be played.
func (c *Career) IsSetUnlocked(venue, set int) bool {
	if venue < c.currentVenue {
		return true
	}
	if venue == c.currentVenue {
		return set <= c.currentSet || c.setsCompleted[venue][set]
	}
	return false
}
