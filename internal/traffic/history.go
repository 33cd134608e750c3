package traffic

import (
	"sync"
	"time"

	"mikrodesk/internal/api"
)

// Capacity is the number of points kept for the dashboard chart.
const Capacity = 30

// Point is one chart sample in kilobits per second.
type Point struct {
	Time   time.Time
	Label  string
	TxKbps float64
	RxKbps float64
}

// History is a rolling window of traffic samples for one interface.
type History struct {
	mu       sync.Mutex
	capacity int
	selected string
	points   []Point
}

// NewHistory returns an empty history of the default capacity.
func NewHistory() *History {
	return &History{capacity: Capacity}
}

// Selected returns the interface points are taken from.
func (h *History) Selected() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selected
}

// Select switches the series future points come from. Existing points stay.
func (h *History) Select(iface string) {
	h.mu.Lock()
	h.selected = iface
	h.mu.Unlock()
}

// Observe appends one point from samples. With no interface selected the
// first one is picked. It reports false when the selected interface is not
// in samples.
func (h *History) Observe(samples []api.InterfaceTraffic, at time.Time) bool {
	if len(samples) == 0 {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.selected == "" {
		h.selected = samples[0].Interface
	}
	var sample *api.InterfaceTraffic
	for i := range samples {
		if samples[i].Interface == h.selected {
			sample = &samples[i]
			break
		}
	}
	if sample == nil {
		return false
	}

	label := sample.Time
	if label == "" {
		label = at.Format("15:04:05")
	}
	h.points = append(h.points, Point{
		Time:   at,
		Label:  label,
		TxKbps: sample.TX.BPS / 1000,
		RxKbps: sample.RX.BPS / 1000,
	})
	if over := len(h.points) - h.capacity; over > 0 {
		h.points = append(h.points[:0:0], h.points[over:]...)
	}
	return true
}

// Points returns a copy of the window, oldest first.
func (h *History) Points() []Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Point, len(h.points))
	copy(out, h.points)
	return out
}

// Interfaces lists interface names in sample order.
func Interfaces(samples []api.InterfaceTraffic) []string {
	out := make([]string, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Interface)
	}
	return out
}
