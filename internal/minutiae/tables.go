package minutiae

import "math"

// Directions are indexed clockwise from the top-left neighbour, matching the
// bit order of the neighbourhood byte. noDirection marks a walk that has not
// moved yet.
const (
	directionCount = 8
	noDirection    = 8
)

type step struct {
	dx, dy int
	length float64
}

var steps = [directionCount]step{
	{-1, -1, math.Sqrt2},
	{0, -1, 1},
	{1, -1, math.Sqrt2},
	{1, 0, 1},
	{1, 1, math.Sqrt2},
	{0, 1, 1},
	{-1, 1, math.Sqrt2},
	{-1, 0, 1},
}

// CrossingNumbers maps every neighbourhood byte to its count of circular
// 0→1 transitions.
var CrossingNumbers = func() (table [256]uint8) {
	for code := 0; code < 256; code++ {
		var count uint8
		for i := 0; i < directionCount; i++ {
			cur := code >> i & 1
			next := code >> ((i + 1) % directionCount) & 1
			if cur == 0 && next == 1 {
				count++
			}
		}
		table[code] = count
	}
	return table
}()

// NextDirections[code][previous] lists the directions a ridge walk may take
// from a pixel with neighbourhood code, best continuation first. For a known
// previous direction the candidates are ranked by circular closeness to it
// and the reverse direction is dropped.
var NextDirections = func() (table [256][directionCount + 1][]int) {
	for code := 0; code < 256; code++ {
		for previous := 0; previous <= noDirection; previous++ {
			table[code][previous] = nextDirections(uint8(code), previous)
		}
	}
	return table
}()

func nextDirections(code uint8, previous int) []int {
	var options []int
	for d := 0; d < directionCount; d++ {
		if code>>d&1 == 1 {
			options = append(options, d)
		}
	}
	if len(options) == 0 || previous == noDirection {
		return options
	}
	// insertion sort keeps equal distances in ascending direction order
	for i := 1; i < len(options); i++ {
		for j := i; j > 0 && turn(options[j], previous) < turn(options[j-1], previous); j-- {
			options[j], options[j-1] = options[j-1], options[j]
		}
	}
	if options[len(options)-1] == (previous+4)%directionCount {
		options = options[:len(options)-1]
	}
	return options
}

// turn is the circular distance between two directions, 0..4.
func turn(d, previous int) int {
	diff := d - previous
	if diff < 0 {
		diff = -diff
	}
	diff -= 4
	if diff < 0 {
		diff = -diff
	}
	return 4 - diff
}
