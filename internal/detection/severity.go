// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"fmt"
	"math"
)

const (
	ColorGreen = 0x00FF00
	ColorRed   = 0xFF0000
)

// SeverityMapper maps a kill rate onto a green to red gradient. The color
// is presentation only.
type SeverityMapper struct {
	threshold float64
	maxRate   float64
}

// NewSeverityMapper creates a mapper that renders threshold as pure green
// and maxRate (or above) as pure red.
func NewSeverityMapper(threshold, maxRate float64) SeverityMapper {
	return SeverityMapper{threshold: threshold, maxRate: maxRate}
}

// Color returns the 0xRRGGBB color for rate. Each channel is interpolated
// linearly; rates outside [threshold, maxRate] are clamped.
func (m SeverityMapper) Color(rate float64) int {
	t := m.position(rate)
	red := int(math.Round(255 * t))
	green := int(math.Round(255 * (1 - t)))
	return red<<16 | green<<8
}

func (m SeverityMapper) position(rate float64) float64 {
	span := m.maxRate - m.threshold
	if span <= 0 {
		if rate > m.threshold {
			return 1
		}
		return 0
	}
	t := (rate - m.threshold) / span
	return math.Max(0, math.Min(1, t))
}

// ColorHex formats a color as #RRGGBB.
func ColorHex(color int) string {
	return fmt.Sprintf("#%06X", color&0xFFFFFF)
}
