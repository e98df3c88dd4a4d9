//go:build !libfvad
// +build !libfvad

package fvad

import (
	"fmt"
)

func NewDetector() (Detector, error) {
	return nil, fmt.Errorf("built without tag 'libfvad'")
}
