package matching

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"
)

// Edge is a feasible correspondence between a left and a right landmark id.
type Edge struct {
	Cost        float64
	Left, Right int
}

// byCost orders edges by ascending cost, then left id, then right id.
var byCost utils.Comparator = func(a, b interface{}) int {
	x, y := a.(Edge), b.(Edge)
	switch {
	case x.Cost < y.Cost:
		return -1
	case x.Cost > y.Cost:
		return 1
	}
	if c := utils.IntComparator(x.Left, y.Left); c != 0 {
		return c
	}
	return utils.IntComparator(x.Right, y.Right)
}

// Assign selects a one-to-one subset of edges greedily by ascending cost and
// stops after maxMatches selections. Ids must be non-negative.
func Assign(edges []Edge, maxMatches int) []Edge {
	if len(edges) == 0 || maxMatches <= 0 {
		return nil
	}
	heap := binaryheap.NewWith(byCost)
	maxLeft, maxRight := 0, 0
	for _, e := range edges {
		heap.Push(e)
		maxLeft = max(maxLeft, e.Left)
		maxRight = max(maxRight, e.Right)
	}
	usedLeft := make([]bool, maxLeft+1)
	usedRight := make([]bool, maxRight+1)

	var chosen []Edge
	for len(chosen) < maxMatches {
		v, ok := heap.Pop()
		if !ok {
			break
		}
		e := v.(Edge)
		if usedLeft[e.Left] || usedRight[e.Right] {
			continue
		}
		usedLeft[e.Left] = true
		usedRight[e.Right] = true
		chosen = append(chosen, e)
	}
	return chosen
}
