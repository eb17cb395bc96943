package match

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// affineFromTriangle computes the affine transform mapping three pixel
// positions onto three ground positions.
func affineFromTriangle(src, dst [3]geometry.Point2D) (geometry.AffineTransform, error) {
	// [x', y'] = [a, b, tx; c, d, ty] * [x, y, 1], six equations in six
	// unknowns.
	A := mat.NewDense(6, 6, nil)
	B := mat.NewVecDense(6, nil)
	for i := 0; i < 3; i++ {
		x, y := src[i].X, src[i].Y
		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.AffineTransform{}, err
	}
	return transformFromVec(&params), nil
}

// affineLeastSquares fits an affine transform to n >= 3 correspondences
// by QR least squares.
func affineLeastSquares(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	n := len(src)
	if n < 3 || len(dst) != n {
		return geometry.AffineTransform{}, fmt.Errorf("need at least 3 point pairs, got %d and %d", n, len(dst))
	}

	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var qr mat.QR
	qr.Factorize(A)
	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return geometry.AffineTransform{}, err
	}
	return transformFromVec(&params), nil
}

func transformFromVec(v *mat.VecDense) geometry.AffineTransform {
	return geometry.AffineTransform{
		A:  v.AtVec(0),
		B:  v.AtVec(1),
		TX: v.AtVec(2),
		C:  v.AtVec(3),
		D:  v.AtVec(4),
		TY: v.AtVec(5),
	}
}
