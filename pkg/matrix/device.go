package matrix

// DeviceMatrix receives the stamps of one linear system. Indices are
// 0-based row/column positions of the assembled vector.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
}
