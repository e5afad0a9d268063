package customs

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransportRecord is one row of the optional arrival-notification file. It
// carries the transport-level registration and package count for a
// consolidated entry registration.
type TransportRecord struct {
	EntryRegistration string // joined against ComputedPosition.ATBNumber
	TransportMRN      string
	PackageCount      decimal.NullDecimal
}

// EnhanceTransport overlays transport data onto a computed result set.
// Positions whose entry registration appears in the transport file get the
// transport MRN as their entry MRN and the package count as their quantity;
// existing values are only replaced when the transport file has one. The
// overlay runs after the engine, never inside it: the result stays valid
// without a transport file.
//
// Returns how many positions received a transport MRN and how many a
// package count.
func EnhanceTransport(positions []ComputedPosition, transport []TransportRecord) (mrnFilled, quantityFilled int) {
	if len(transport) == 0 {
		return 0, 0
	}
	byEntry := make(map[string]TransportRecord, len(transport))
	for _, t := range transport {
		key := strings.TrimSpace(t.EntryRegistration)
		if key == "" {
			continue
		}
		// First row per registration wins, matching file order.
		if _, ok := byEntry[key]; !ok {
			byEntry[key] = t
		}
	}

	for i := range positions {
		t, ok := byEntry[strings.TrimSpace(positions[i].ATBNumber)]
		if !ok {
			continue
		}
		if t.TransportMRN != "" {
			positions[i].EntryMRN = t.TransportMRN
			mrnFilled++
		}
		if t.PackageCount.Valid {
			positions[i].Quantity = t.PackageCount
			quantityFilled++
		}
	}
	return mrnFilled, quantityFilled
}
