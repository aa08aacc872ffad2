package uvc

import "sync"

// DeviceID identifies a device model by its vendor and product IDs.
type DeviceID struct {
	Vendor  uint16
	Product uint16
}

var (
	quirkMutex sync.RWMutex

	// quirkTable maps known-misbehaving device models to the quirks
	// that work around them. Entries added by RegisterQuirks shadow
	// the built-in ones.
	quirkTable = map[DeviceID]Quirks{
		// SiGma Micro USB Web Camera: stalls the probe set request
		// unless the extra negotiation fields are populated, and
		// exposes a selector unit that does not work.
		{Vendor: 0x1c4f, Product: 0x3000}: QuirkProbeExtraFields | QuirkIgnoreSelectorUnit,
	}
)

// QuirksFor returns the quirks known for the given device model, or
// zero if the model has no known quirks.
func QuirksFor(vendor, product uint16) Quirks {
	quirkMutex.RLock()
	defer quirkMutex.RUnlock()
	return quirkTable[DeviceID{Vendor: vendor, Product: product}]
}

// RegisterQuirks records the quirks for a device model, replacing any
// existing entry. Memory-constrained integrations use it to apply
// [QuirkReduceMemUsage] to the models they ship with.
func RegisterQuirks(vendor, product uint16, quirks Quirks) {
	quirkMutex.Lock()
	defer quirkMutex.Unlock()
	quirkTable[DeviceID{Vendor: vendor, Product: product}] = quirks
}
