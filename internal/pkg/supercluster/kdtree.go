package supercluster

import "sort"

// kdTree is a static 2D index over a flat slice of coordinates.
// Items are reordered in place so that every range [left, right] is split at its
// median along alternating axes; ranges no larger than nodeSize are left unsorted.
type kdTree struct {
	ids      []int
	coords   []float64 // x0, y0, x1, y1, ...
	nodeSize int
}

func newKDTree(xs, ys []float64, nodeSize int) *kdTree {
	t := &kdTree{
		ids:      make([]int, len(xs)),
		coords:   make([]float64, 2*len(xs)),
		nodeSize: nodeSize,
	}
	for i := range xs {
		t.ids[i] = i
		t.coords[2*i] = xs[i]
		t.coords[2*i+1] = ys[i]
	}
	if len(xs) > 0 {
		t.build(0, len(xs)-1, 0)
	}
	return t
}

func (t *kdTree) build(left, right, axis int) {
	if right-left <= t.nodeSize {
		return
	}
	sort.Sort(axisSorter{t: t, offset: left, n: right - left + 1, axis: axis})

	m := (left + right) >> 1
	t.build(left, m-1, 1-axis)
	t.build(m+1, right, 1-axis)
}

// axisSorter sorts a sub-range of the tree by one coordinate.
// Ties are broken by id so the layout does not depend on the sort algorithm.
type axisSorter struct {
	t      *kdTree
	offset int
	n      int
	axis   int
}

func (s axisSorter) Len() int { return s.n }

func (s axisSorter) Less(i, j int) bool {
	a, b := s.offset+i, s.offset+j
	va, vb := s.t.coords[2*a+s.axis], s.t.coords[2*b+s.axis]
	if va != vb {
		return va < vb
	}
	return s.t.ids[a] < s.t.ids[b]
}

func (s axisSorter) Swap(i, j int) {
	a, b := s.offset+i, s.offset+j
	s.t.ids[a], s.t.ids[b] = s.t.ids[b], s.t.ids[a]
	s.t.coords[2*a], s.t.coords[2*b] = s.t.coords[2*b], s.t.coords[2*a]
	s.t.coords[2*a+1], s.t.coords[2*b+1] = s.t.coords[2*b+1], s.t.coords[2*a+1]
}

// Range returns the ids of all items inside the axis-aligned box.
func (t *kdTree) Range(minX, minY, maxX, maxY float64) []int {
	var result []int
	if len(t.ids) == 0 {
		return result
	}

	stack := []int{0, len(t.ids) - 1, 0}
	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if right-left <= t.nodeSize {
			for i := left; i <= right; i++ {
				x, y := t.coords[2*i], t.coords[2*i+1]
				if x >= minX && x <= maxX && y >= minY && y <= maxY {
					result = append(result, t.ids[i])
				}
			}
			continue
		}

		m := (left + right) >> 1
		x, y := t.coords[2*m], t.coords[2*m+1]
		if x >= minX && x <= maxX && y >= minY && y <= maxY {
			result = append(result, t.ids[m])
		}

		if (axis == 0 && minX <= x) || (axis == 1 && minY <= y) {
			stack = append(stack, left, m-1, 1-axis)
		}
		if (axis == 0 && maxX >= x) || (axis == 1 && maxY >= y) {
			stack = append(stack, m+1, right, 1-axis)
		}
	}
	return result
}

// Within returns the ids of all items within radius r of (qx, qy).
func (t *kdTree) Within(qx, qy, r float64) []int {
	var result []int
	if len(t.ids) == 0 {
		return result
	}

	r2 := r * r
	stack := []int{0, len(t.ids) - 1, 0}
	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if right-left <= t.nodeSize {
			for i := left; i <= right; i++ {
				if sqDist(t.coords[2*i], t.coords[2*i+1], qx, qy) <= r2 {
					result = append(result, t.ids[i])
				}
			}
			continue
		}

		m := (left + right) >> 1
		x, y := t.coords[2*m], t.coords[2*m+1]
		if sqDist(x, y, qx, qy) <= r2 {
			result = append(result, t.ids[m])
		}

		if (axis == 0 && qx-r <= x) || (axis == 1 && qy-r <= y) {
			stack = append(stack, left, m-1, 1-axis)
		}
		if (axis == 0 && qx+r >= x) || (axis == 1 && qy+r >= y) {
			stack = append(stack, m+1, right, 1-axis)
		}
	}
	return result
}

func sqDist(ax, ay, bx, by float64) float64 {
	dx := ax - bx
	dy := ay - by
	return dx*dx + dy*dy
}
