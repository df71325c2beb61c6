package gekko

import (
	"time"
)

type Time struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration
	Frame   uint64
}

// DeltaSecs is the previous frame's duration in seconds.
func (t *Time) DeltaSecs() float32 {
	return float32(t.Dt.Seconds())
}

func (t *Time) advance(now time.Time) {
	if t.Frame > 0 {
		t.Dt = now.Sub(t.Time)
		t.Elapsed += t.Dt
	}
	t.Time = now
	t.Frame++
}

type TimeModule struct{}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	timeResource.advance(time.Now())
}
