package utils

var blasBackend = "gonum"

// BLASBackend names the BLAS implementation used by dense linear algebra, "gonum" unless the
// module is built with the netlib tag
func BLASBackend() string { return blasBackend }
