package engine

// Window returns the hours an appliance may run in, in window order.
// A latest end at or before the earliest start wraps past midnight,
// e.g. 22 -> 4 gives 22, 23, 0, 1, 2, 3.
func Window(earliest, latest int) []int {
	if latest > earliest {
		hours := make([]int, 0, latest-earliest)
		for h := earliest; h < latest; h++ {
			hours = append(hours, h)
		}
		return hours
	}

	hours := make([]int, 0, HoursPerDay-earliest+latest)
	for h := earliest; h < HoursPerDay; h++ {
		hours = append(hours, h)
	}
	for h := 0; h < latest; h++ {
		hours = append(hours, h)
	}
	return hours
}

// blockHours returns the duration consecutive hours starting at start,
// wrapping past midnight
func blockHours(start, duration int) []int {
	block := make([]int, duration)
	for i := range block {
		block[i] = (start + i) % HoursPerDay
	}
	return block
}

// windowMask marks which hours of the day belong to window
func windowMask(window []int) [HoursPerDay]bool {
	var mask [HoursPerDay]bool
	for _, h := range window {
		mask[h] = true
	}
	return mask
}
