package types

// Ray starts at Origin and extends to infinity along the normalized Dir.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// RayFromPoints creates the ray that starts at x0 and passes through x1.
func RayFromPoints(x0, x1 Vec3) Ray {
	return Ray{
		Origin: x0,
		Dir:    x1.Sub(x0).Normalize(),
	}
}

// PointAt returns the point at distance t along the ray.
func (r Ray) PointAt(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
