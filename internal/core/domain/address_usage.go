package domain

import "time"

// AddressUsage maps a merchant's account index to the epoch millis it was last selected.
type AddressUsage map[int]int64

// LastUsed returns the last selection time for idx, 0 if never used.
func (u AddressUsage) LastUsed(idx int) int64 {
	if u == nil {
		return 0
	}
	return u[idx]
}

// Touch records that idx was selected at now.
func (u AddressUsage) Touch(idx int, now time.Time) {
	u[idx] = now.UnixMilli()
}

// Selection is the outcome of choosing a receiving address.
type Selection struct {
	Address      string
	AccountIndex int
	Fallback     bool // candidate set was empty after truncation; primary was used
}
