// Package images - Bounding box geometry used to match detections against ground truth.
package images

// Box is an axis-aligned bounding box in pixel coordinates.
//
// Coordinates follow the PASCAL VOC convention: X2 and Y2 are inclusive, so a box
// spanning a single pixel has X1 == X2. Every area computed here adds one pixel to
// each side length to account for that.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Width returns the inclusive width of the box, zero for an inverted box.
func (b Box) Width() float64 {
	return max(b.X2-b.X1+1, 0)
}

// Height returns the inclusive height of the box, zero for an inverted box.
func (b Box) Height() float64 {
	return max(b.Y2-b.Y1+1, 0)
}

// Area returns the inclusive area of the box.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Intersection calculates the overlapping area between two boxes.
//
// Arguments:
//   - o: The other box.
//
// Returns:
//   - float64: The area of intersection, zero when the boxes do not overlap.
//
// @example
// a := Box{X1: 0, Y1: 0, X2: 9, Y2: 9}
// b := Box{X1: 5, Y1: 5, X2: 14, Y2: 14}
// area := a.Intersection(b) // Returns 25 (5x5 overlap)
func (b Box) Intersection(o Box) float64 {
	iw := min(b.X2, o.X2) - max(b.X1, o.X1) + 1
	ih := min(b.Y2, o.Y2) - max(b.Y1, o.Y1) + 1
	if iw <= 0 || ih <= 0 {
		return 0
	}
	return iw * ih
}

// Union calculates the area covered by either box.
func (b Box) Union(o Box) float64 {
	return b.Area() + o.Area() - b.Intersection(o)
}

// Enclosing returns the smallest box containing both boxes.
func (b Box) Enclosing(o Box) Box {
	return Box{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

// CalculateIoU computes the Intersection over Union between two boxes.
//
// IoU = Area of Intersection / Area of Union
//
//   - A value of 1.0 means the boxes are identical.
//   - A value of 0.0 means the boxes don't overlap at all.
//
// An inverted box has zero area, so a degenerate union (both boxes inverted) yields 0
// rather than a division by zero.
//
// Arguments:
//   - r: The first box.
//   - o: The other box to compare against.
//
// Returns:
//   - float64: A value between 0.0 and 1.0 representing the IoU score.
//
// @example
// a := Box{X1: 0, Y1: 0, X2: 9, Y2: 9}
// b := Box{X1: 5, Y1: 5, X2: 14, Y2: 14}
// iou := CalculateIoU(a, b) // 25 / (100 + 100 - 25) ≈ 0.142857
func CalculateIoU(r, o Box) float64 {
	union := r.Union(o)
	if union <= 0 {
		return 0
	}
	return r.Intersection(o) / union
}

// CalculateGIoU computes the Generalized IoU between two boxes.
//
// GIoU subtracts from the IoU the fraction of the enclosing box that is covered by
// neither input:
//
//	GIoU = IoU - (Area(C) - Area(Union)) / Area(C)
//
// where C is the smallest box enclosing both inputs. The result lies in (-1, 1] and,
// unlike IoU, still ranks non-overlapping boxes by how far apart they are.
//
// Arguments:
//   - r: The first box.
//   - o: The other box to compare against.
//
// Returns:
//   - float64: The GIoU score.
func CalculateGIoU(r, o Box) float64 {
	inter := r.Intersection(o)
	union := r.Union(o)
	if union <= 0 {
		return 0
	}
	enclosing := r.Enclosing(o).Area()
	if enclosing <= 0 {
		return 0
	}
	return inter/union - (enclosing-union)/enclosing
}

// Overlap selects the overlap metric used when matching detections to ground truth.
type Overlap func(r, o Box) float64

// OverlapFunc returns CalculateGIoU when generalized is set, CalculateIoU otherwise.
func OverlapFunc(generalized bool) Overlap {
	if generalized {
		return CalculateGIoU
	}
	return CalculateIoU
}
