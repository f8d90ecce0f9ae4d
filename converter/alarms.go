// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package converter

import "fmt"

// alarmBits maps a bit index of the 32-bit alarm bitmap to its meaning.
// Bit indices are not contiguous; unlisted bits are reserved.
var alarmBits = map[int]string{
	0:  "Power failure",
	1:  "Power protection",
	4:  "Input undervoltage",
	5:  "Input overvoltage",
	6:  "Input phase loss",
	10: "Serious uneven flow",
	12: "Address duplication",
	13: "Output status (0:on,1:off)",
	14: "Power derating",
	15: "Temperature derating",
	16: "AC derating",
	17: "Output overvoltage",
	18: "Output undervoltage",
	19: "Output short",
	20: "Over temperature",
	21: "Low temperature",
}

// DecodeAlarms returns a human-readable entry for every set bit with a
// known description, in ascending bit order. Unknown set bits are
// omitted.
func DecodeAlarms(mask uint32) []string {
	var active []string
	for bit := 0; bit < 32; bit++ {
		if mask&(1<<bit) == 0 {
			continue
		}
		desc, ok := alarmBits[bit]
		if !ok {
			continue
		}
		active = append(active, fmt.Sprintf("bit%d: %s", bit, desc))
	}
	return active
}
