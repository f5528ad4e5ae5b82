// Package reconcile merges point-in-time snapshots with live insert-event
// streams into a single consistent client-visible set. Streams are treated as
// at-least-once and unordered; the snapshot is authoritative.
package reconcile

import (
	"math"

	"party-radar-backend/internal/models"
)

// BeaconView is the visible set of nearby beacons for one subscriber.
// Not safe for concurrent use; the owner synchronizes access.
type BeaconView struct {
	order []string
	items map[string]*models.NearbyBeacon
}

// NewBeaconView creates an empty beacon view
func NewBeaconView() *BeaconView {
	return &BeaconView{items: make(map[string]*models.NearbyBeacon)}
}

// Replace swaps the whole visible set for a fresh snapshot. Used on
// subscription, on explicit refresh and on reconnect; it self-heals from any
// events missed while the stream was down.
func (v *BeaconView) Replace(snapshot []*models.NearbyBeacon) {
	v.order = v.order[:0]
	v.items = make(map[string]*models.NearbyBeacon, len(snapshot))
	for _, b := range snapshot {
		if !validBeacon(b) {
			continue
		}
		if _, ok := v.items[b.ID]; ok {
			continue
		}
		v.items[b.ID] = b
		v.order = append(v.order, b.ID)
	}
}

// ApplyInsert merges one stream event into the view. It reports whether the
// view changed: duplicates of already-visible beacons and malformed rows are
// dropped silently.
func (v *BeaconView) ApplyInsert(b *models.NearbyBeacon) bool {
	if !validBeacon(b) {
		return false
	}
	if _, ok := v.items[b.ID]; ok {
		return false
	}
	v.items[b.ID] = b
	v.order = append(v.order, b.ID)
	return true
}

// Beacons returns the visible set, snapshot order first, stream arrivals after
func (v *BeaconView) Beacons() []*models.NearbyBeacon {
	out := make([]*models.NearbyBeacon, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.items[id])
	}
	return out
}

// Len returns the number of visible beacons
func (v *BeaconView) Len() int {
	return len(v.order)
}

func validBeacon(b *models.NearbyBeacon) bool {
	if b == nil || b.ID == "" {
		return false
	}
	if math.IsNaN(b.Lat) || math.IsNaN(b.Lng) {
		return false
	}
	return b.Lat >= -90 && b.Lat <= 90 && b.Lng >= -180 && b.Lng <= 180
}
