package spiral

import (
	"math"
	"sort"
)

type point struct {
	x, y int
}

// largestComponent returns the pixel count and member mask of the
// biggest 4-connected ink component.
func largestComponent(mask []bool, width, height int) (int, []bool) {
	visited := make([]bool, len(mask))
	best := 0
	var bestMember []bool

	queue := make([]int, 0, 256)
	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		member := make([]bool, len(mask))
		size := 0
		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			member[idx] = true
			size++

			x, y := idx%width, idx/width
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				nidx := ny*width + nx
				if mask[nidx] && !visited[nidx] {
					visited[nidx] = true
					queue = append(queue, nidx)
				}
			}
		}
		if size > best {
			best = size
			bestMember = member
		}
	}
	return best, bestMember
}

// traceBoundary walks the component's outer contour clockwise using
// Moore neighbor tracing from the topmost-left pixel.
func traceBoundary(member []bool, width, height int) []point {
	inside := func(p point) bool {
		return p.x >= 0 && p.y >= 0 && p.x < width && p.y < height && member[p.y*width+p.x]
	}

	var start point
	found := false
	for y := 0; y < height && !found; y++ {
		for x := 0; x < width && !found; x++ {
			if member[y*width+x] {
				start = point{x, y}
				found = true
			}
		}
	}
	if !found {
		return nil
	}

	// Clockwise Moore neighborhood starting west.
	neighbors := [8][2]int{{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}}

	contour := []point{start}
	current := start
	entry := 0
	limit := 4 * width * height
	for step := 0; step < limit; step++ {
		advanced := false
		for i := 0; i < 8; i++ {
			dir := (entry + i) % 8
			next := point{current.x + neighbors[dir][0], current.y + neighbors[dir][1]}
			if inside(next) {
				current = next
				// Back up two positions so the scan resumes from the
				// pixel we came from.
				entry = (dir + 6) % 8
				advanced = true
				break
			}
		}
		if !advanced {
			break // isolated pixel
		}
		if current == start && len(contour) > 1 {
			break
		}
		contour = append(contour, current)
	}
	return contour
}

// pathLength sums the Euclidean steps along the closed contour.
func pathLength(contour []point) float64 {
	if len(contour) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(contour); i++ {
		next := contour[(i+1)%len(contour)]
		dx := float64(next.x - contour[i].x)
		dy := float64(next.y - contour[i].y)
		total += math.Hypot(dx, dy)
	}
	return total
}

// convexHull computes the hull of the contour points with Andrew's
// monotone chain, returned counter-clockwise without the closing point.
func convexHull(points []point) []point {
	if len(points) < 3 {
		return points
	}
	pts := make([]point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].x != pts[j].x {
			return pts[i].x < pts[j].x
		}
		return pts[i].y < pts[j].y
	})
	// Deduplicate.
	unique := pts[:1]
	for _, p := range pts[1:] {
		if p != unique[len(unique)-1] {
			unique = append(unique, p)
		}
	}
	pts = unique
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b point) int {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}

	var hull []point
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// polygonArea is the shoelace area of a closed polygon.
func polygonArea(poly []point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < len(poly); i++ {
		j := (i + 1) % len(poly)
		sum += float64(poly[i].x*poly[j].y - poly[j].x*poly[i].y)
	}
	return math.Abs(sum) / 2
}

// radialDispersion is the normalized spread of contour radii around the
// centroid: the tremor proxy used by spiral_deviation.
func radialDispersion(contour []point) float64 {
	if len(contour) == 0 {
		return 0
	}
	var cx, cy float64
	for _, p := range contour {
		cx += float64(p.x)
		cy += float64(p.y)
	}
	cx /= float64(len(contour))
	cy /= float64(len(contour))

	radii := make([]float64, len(contour))
	var mean float64
	for i, p := range contour {
		radii[i] = math.Hypot(float64(p.x)-cx, float64(p.y)-cy)
		mean += radii[i]
	}
	mean /= float64(len(radii))
	if mean < 1e-6 {
		return 0
	}
	var variance float64
	for _, r := range radii {
		variance += (r - mean) * (r - mean)
	}
	return math.Sqrt(variance/float64(len(radii))) / mean
}
