// timezone/locator.go
package timezone

import (
	"fmt"
	"math"

	"github.com/ringsaturn/tzf"
)

// Finder is the point-in-polygon lookup. tzf.F satisfies it.
// It returns "" when no zone polygon contains the point.
type Finder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// probeRadii are the ring distances, in degrees, searched by ClosestTimezoneAt.
var probeRadii = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4}

// Locator maps coordinates to IANA zone names.
type Locator struct {
	finder Finder
}

func NewLocator(finder Finder) *Locator {
	return &Locator{finder: finder}
}

// NewDefaultLocator loads the tzf polygon data bundled with the module.
func NewDefaultLocator() (*Locator, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone polygons: %w", err)
	}
	return NewLocator(finder), nil
}

// TimezoneAt returns the zone containing the point, or "".
func (l *Locator) TimezoneAt(lat, lng float64) string {
	return l.finder.GetTimezoneName(lng, lat)
}

// ClosestTimezoneAt probes rings of growing radius around the point and
// returns the first zone hit. Points with nothing nearby (open ocean) get the
// nautical Etc/GMT zone for their longitude. Non-finite coordinates get "".
func (l *Locator) ClosestTimezoneAt(lat, lng float64) string {
	if !isFinite(lat) || !isFinite(lng) {
		return ""
	}
	if name := l.TimezoneAt(lat, lng); name != "" {
		return name
	}
	for _, r := range probeRadii {
		for i := 0; i < 8; i++ {
			angle := float64(i) * math.Pi / 4
			plat := clampLat(lat + r*math.Sin(angle))
			plng := wrapLng(lng + r*math.Cos(angle))
			if name := l.finder.GetTimezoneName(plng, plat); name != "" {
				return name
			}
		}
	}
	return NauticalZone(lng)
}

// NauticalZone is the Etc/GMT zone of a longitude. POSIX signs are inverted:
// 30E is Etc/GMT-2. A non-finite longitude has no zone.
func NauticalZone(lng float64) string {
	if !isFinite(lng) {
		return ""
	}
	offset := int(math.Round(wrapLng(lng) / 15))
	switch {
	case offset == 0:
		return "Etc/GMT"
	case offset > 0:
		return fmt.Sprintf("Etc/GMT-%d", offset)
	default:
		return fmt.Sprintf("Etc/GMT+%d", -offset)
	}
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// wrapLng folds lng into [-180, 180].
func wrapLng(lng float64) float64 {
	return math.Remainder(lng, 360)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
