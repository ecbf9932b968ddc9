package vision

import (
	"image"
	"math"
)

// polygonMoments returns the spatial moments m00, m10 and m01 of the closed
// polygon pts. m00 is the signed area.
func polygonMoments(pts []image.Point) (m00, m10, m01 float64) {
	n := len(pts)
	if n < 3 {
		return 0, 0, 0
	}
	for i := 0; i < n; i++ {
		x0, y0 := float64(pts[i].X), float64(pts[i].Y)
		x1, y1 := float64(pts[(i+1)%n].X), float64(pts[(i+1)%n].Y)
		cross := x0*y1 - x1*y0
		m00 += cross
		m10 += (x0 + x1) * cross
		m01 += (y0 + y1) * cross
	}
	return m00 / 2, m10 / 6, m01 / 6
}

// centroid returns the area-weighted center of a contour. ok is false for
// degenerate contours with zero mass.
func centroid(pts []image.Point) (c image.Point, area float64, ok bool) {
	m00, m10, m01 := polygonMoments(pts)
	if m00 == 0 {
		return image.Point{}, 0, false
	}
	return image.Pt(int(m10/m00), int(m01/m00)), math.Abs(m00), true
}

// boundingBox returns the smallest pixel rectangle covering pts, inclusive of
// the outermost pixels.
func boundingBox(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(pts[0].X, pts[0].Y, pts[0].X+1, pts[0].Y+1)
	for _, p := range pts[1:] {
		r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	}
	return r
}
