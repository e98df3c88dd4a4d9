//go:build libfvad
// +build libfvad

package fvad

import (
	libfvad "github.com/josharian/fvad"
)

var _ Detector = (*libfvad.Detector)(nil)

func NewDetector() (Detector, error) {
	return libfvad.NewDetector(), nil
}
