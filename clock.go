package galton

// Clock turns the host frame time into the dt given to World.Step
type Clock struct {
	// TimeScale multiplies the frame time, it is never below 1
	TimeScale int
	Paused    bool
}

func NewClock() Clock {
	return Clock{TimeScale: 1}
}

// Tick returns the simulated time for a frame that lasted frameTime seconds
// A paused clock returns 0, so that the tick still runs without moving anything.
func (c *Clock) Tick(frameTime float64) float64 {
	if c.Paused || !(frameTime > 0) {
		return 0
	}

	return frameTime * float64(max(1, c.TimeScale))
}

// AddTimeScale changes the time scale by delta, keeping it at 1 or more
func (c *Clock) AddTimeScale(delta int) {
	c.TimeScale = max(1, c.TimeScale+delta)
}

func (c *Clock) TogglePause() {
	c.Paused = !c.Paused
}
