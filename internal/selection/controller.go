package selection

import (
	"log/slog"
	"slices"
	"sync"
)

// State is a step of the confirmation flow.
type State string

const (
	Idle         State = "idle"
	PendingPoint State = "pending_point"
	PendingDate  State = "pending_date"
)

// Snapshot is a copy of the controller's state for display.
type Snapshot struct {
	State     State        `json:"state"`
	Coords    *Coordinates `json:"coords,omitempty"`
	PlaceName string       `json:"placeName,omitempty"`
	Date      string       `json:"date,omitempty"`
}

// Controller walks a user from a map click to a finalized Selection:
// pick point, confirm it, enter a date, confirm it. Finalizing hands the
// Selection to every registered callback and returns the controller to Idle.
type Controller struct {
	mu        sync.Mutex
	state     State
	coords    Coordinates
	placeName string
	date      string
	listeners []func(Selection)
	logger    *slog.Logger
}

func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{state: Idle, logger: logger}
}

// OnFinalize registers fn to receive each finalized Selection. Callbacks
// run synchronously, outside the controller's lock.
func (c *Controller) OnFinalize(fn func(Selection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Click holds a new provisional point. It is accepted in every state and
// always restarts the flow at PendingPoint.
func (c *Controller) Click(coords Coordinates) {
	c.ClickPlace(coords, "")
}

// ClickPlace is Click for a point picked from search results.
func (c *Controller) ClickPlace(coords Coordinates, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = PendingPoint
	c.coords = coords
	c.placeName = name
	c.date = ""
	c.logger.Debug("point selected", "lat", coords.Lat, "lng", coords.Lng, "place", name)
}

// ConfirmPoint accepts the provisional point and asks for a date.
func (c *Controller) ConfirmPoint() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != PendingPoint {
		return ErrInvalidTransition
	}
	c.state = PendingDate
	return nil
}

// SetDate records the raw date input while waiting for confirmation.
func (c *Controller) SetDate(date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != PendingDate {
		return ErrInvalidTransition
	}
	c.date = date
	return nil
}

// ConfirmDate validates the recorded date and finalizes the Selection. On a
// validation error the controller stays in PendingDate.
func (c *Controller) ConfirmDate() (Selection, error) {
	c.mu.Lock()
	if c.state != PendingDate {
		c.mu.Unlock()
		return Selection{}, ErrInvalidTransition
	}
	date, err := ParseDateKey(c.date)
	if err != nil {
		c.mu.Unlock()
		return Selection{}, err
	}
	sel := Selection{Coords: c.coords, Date: date, PlaceName: c.placeName}
	c.reset()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	c.logger.Info("selection finalized", "lat", sel.Coords.Lat, "lng", sel.Coords.Lng, "date", sel.Date.String())
	for _, fn := range listeners {
		fn(sel)
	}
	return sel, nil
}

// Cancel discards any pending point and date.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{State: c.state, Date: c.date, PlaceName: c.placeName}
	if c.state != Idle {
		coords := c.coords
		snap.Coords = &coords
	}
	return snap
}

func (c *Controller) reset() {
	c.state = Idle
	c.coords = Coordinates{}
	c.placeName = ""
	c.date = ""
}
