//go:build cgo && netlib
// +build cgo,netlib

package utils

/*
#cgo LDFLAGS: -lopenblas -lm -lpthread
#include <cblas.h>
*/
import "C"

import (
	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// Dense LU factorisations of the Newton matrix go through blas64, route them to OpenBLAS
func init() {
	blas64.Use(netblas.Implementation{})
	blasBackend = "netlib (OpenBLAS)"
}
