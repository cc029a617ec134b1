package command

import "fmt"

// ZoneCache holds every configured zone's details, keyed by zone number.
// It's populated once via EnumerateZones after login and is read-only for
// the lifetime of the session after that: zone text and type don't change
// without a reprogram, which would drop the connection anyway.
type ZoneCache struct {
	zones map[int]ZoneDetails
}

// NewZoneCache returns an empty cache ready for Set.
func NewZoneCache() *ZoneCache {
	return &ZoneCache{zones: make(map[int]ZoneDetails)}
}

// Set records one zone's details, overwriting any previous entry.
func (c *ZoneCache) Set(z ZoneDetails) {
	c.zones[z.Zone] = z
}

// Get returns a zone's details and whether it has been populated.
func (c *ZoneCache) Get(zone int) (ZoneDetails, bool) {
	z, ok := c.zones[zone]
	return z, ok
}

// Len reports how many zones have been populated.
func (c *ZoneCache) Len() int { return len(c.zones) }

// Text is a convenience accessor returning a zone's cleaned text, or a
// placeholder if the zone hasn't been populated.
func (c *ZoneCache) Text(zone int) string {
	if z, ok := c.zones[zone]; ok {
		return z.Text
	}
	return fmt.Sprintf("zone %d", zone)
}
