package traffic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
)

func sample(iface string, tx, rx float64) api.InterfaceTraffic {
	return api.InterfaceTraffic{Interface: iface, TX: api.Rate{BPS: tx}, RX: api.Rate{BPS: rx}}
}

func TestObserveKeepsLastThirty(t *testing.T) {
	h := NewHistory()
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		ok := h.Observe([]api.InterfaceTraffic{sample("ether1", float64(i*1000), 0)}, start.Add(time.Duration(i)*5*time.Second))
		require.True(t, ok)
	}

	points := h.Points()
	require.Len(t, points, Capacity)
	assert.Equal(t, 10.0, points[0].TxKbps, "oldest kept is sample 10")
	assert.Equal(t, 39.0, points[len(points)-1].TxKbps)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Time.After(points[i-1].Time))
	}
}

func TestObserveSelectsFirstInterface(t *testing.T) {
	h := NewHistory()
	now := time.Now()
	samples := []api.InterfaceTraffic{sample("wlan1", 8000, 2000), sample("ether1", 1000, 1000)}

	require.True(t, h.Observe(samples, now))
	assert.Equal(t, "wlan1", h.Selected())
	assert.Equal(t, 8.0, h.Points()[0].TxKbps)
	assert.Equal(t, 2.0, h.Points()[0].RxKbps)
	assert.Equal(t, now.Format("15:04:05"), h.Points()[0].Label)
}

func TestSelectSwitchesSeries(t *testing.T) {
	h := NewHistory()
	now := time.Now()
	samples := []api.InterfaceTraffic{sample("wlan1", 1000, 0), sample("ether1", 5000, 0)}

	h.Observe(samples, now)
	h.Select("ether1")
	h.Observe(samples, now.Add(time.Second))

	points := h.Points()
	require.Len(t, points, 2)
	assert.Equal(t, 1.0, points[0].TxKbps)
	assert.Equal(t, 5.0, points[1].TxKbps)

	h.Select("bridge")
	assert.False(t, h.Observe(samples, now.Add(2*time.Second)))
	assert.False(t, h.Observe(nil, now))
	assert.Len(t, h.Points(), 2)
}

func TestPointsIsACopy(t *testing.T) {
	h := NewHistory()
	h.Observe([]api.InterfaceTraffic{sample("e", 1000, 0)}, time.Now())
	p := h.Points()
	p[0].TxKbps = 99
	assert.Equal(t, 1.0, h.Points()[0].TxKbps)
	assert.Equal(t, []string{"e"}, Interfaces([]api.InterfaceTraffic{sample("e", 0, 0)}))
}
