package physics

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateInertia is returned when the aggregated tensor has no positive principal moments.
var ErrDegenerateInertia = errors.New("physics: degenerate inertia tensor")

// Box is an axis-aligned box in the aggregating body's local space.
type Box struct {
	Center mgl64.Vec3
	Size   mgl64.Vec3
}

// Volume returns the box volume in cubic metres.
func (b Box) Volume() float64 {
	return math.Abs(b.Size[0] * b.Size[1] * b.Size[2])
}

// Inertia is a diagonalised inertia tensor together with the centroid it was measured about.
type Inertia struct {
	Principal mgl64.Vec3
	Rotation  mgl64.Quat
	Centroid  mgl64.Vec3
}

// InertiaFromBoxes distributes mass over boxes proportionally to their volume and returns the
// diagonalised tensor about the volume centroid.
func InertiaFromBoxes(boxes []Box, mass float64) (Inertia, error) {
	//1.- Reject empty or massless aggregates outright.
	if len(boxes) == 0 || !(mass > 0) {
		return Inertia{}, ErrDegenerateInertia
	}
	totalVolume := 0.0
	centroid := Zero
	for _, box := range boxes {
		v := box.Volume()
		totalVolume += v
		centroid = centroid.Add(box.Center.Mul(v))
	}
	if !(totalVolume > 0) {
		return Inertia{}, ErrDegenerateInertia
	}
	centroid = centroid.Mul(1 / totalVolume)

	//2.- Sum each box tensor shifted to the centroid with the parallel axis theorem.
	var tensor [3][3]float64
	for _, box := range boxes {
		m := mass * box.Volume() / totalVolume
		if m == 0 {
			continue
		}
		x2, y2, z2 := box.Size[0]*box.Size[0], box.Size[1]*box.Size[1], box.Size[2]*box.Size[2]
		tensor[0][0] += m / 12 * (y2 + z2)
		tensor[1][1] += m / 12 * (x2 + z2)
		tensor[2][2] += m / 12 * (x2 + y2)
		d := box.Center.Sub(centroid)
		d2 := d.LenSqr()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				shift := -d[i] * d[j]
				if i == j {
					shift += d2
				}
				tensor[i][j] += m * shift
			}
		}
	}

	//3.- Diagonalise the symmetric tensor into principal moments and axes.
	principal, rotation, err := Diagonalize(tensor)
	if err != nil {
		return Inertia{}, err
	}
	return Inertia{Principal: principal, Rotation: rotation, Centroid: centroid}, nil
}

// Diagonalize returns the principal moments of a symmetric tensor and the rotation whose
// columns are the principal axes.
func Diagonalize(tensor [3][3]float64) (mgl64.Vec3, mgl64.Quat, error) {
	//1.- Factorise the symmetric matrix, requesting eigenvectors.
	sym := mat.NewSymDense(3, []float64{
		tensor[0][0], tensor[0][1], tensor[0][2],
		tensor[1][0], tensor[1][1], tensor[1][2],
		tensor[2][0], tensor[2][1], tensor[2][2],
	})
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return Zero, mgl64.QuatIdent(), ErrDegenerateInertia
	}
	values := eig.Values(nil)
	for _, value := range values {
		if !(value > 0) || math.IsInf(value, 0) {
			return Zero, mgl64.QuatIdent(), ErrDegenerateInertia
		}
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	//2.- Keep the basis right-handed so it maps to a proper rotation.
	if mat.Det(&vectors) < 0 {
		for row := 0; row < 3; row++ {
			vectors.Set(row, 2, -vectors.At(row, 2))
		}
	}
	column := func(c int) mgl64.Vec3 {
		return mgl64.Vec3{vectors.At(0, c), vectors.At(1, c), vectors.At(2, c)}
	}
	rotation := mgl64.Mat4ToQuat(mgl64.Mat3FromCols(column(0), column(1), column(2)).Mat4()).Normalize()
	return mgl64.Vec3{values[0], values[1], values[2]}, rotation, nil
}
