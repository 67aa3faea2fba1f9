//go:build !amd64 && !arm64

package hwy

func init() {
	// Other architectures batch a single float64 per lane group.
	setScalarMode()
}
