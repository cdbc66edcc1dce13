package deliveries

import (
	"strings"
	"time"
)

// Activity lights up when new deliveries arrive and fades while the log is quiet.
type Activity struct {
	dots     int
	lastSeen time.Time
}

func (a *Activity) OnDelivery(now time.Time) {
	a.dots = 5
	a.lastSeen = now
}

// Decay dims one dot for every two quiet seconds.
func (a *Activity) Decay(now time.Time) {
	if a.dots == 0 {
		return
	}
	quiet := now.Sub(a.lastSeen)
	a.dots = max(0, 5-int(quiet/(2*time.Second)))
}

func (a Activity) Render(theme Theme) string {
	var b strings.Builder
	for i := range 5 {
		if i < a.dots {
			b.WriteString(theme.TickerActive.Render("●"))
		} else {
			b.WriteString(theme.TickerInactive.Render("○"))
		}
	}
	return b.String()
}
