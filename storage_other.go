//go:build !linux && !darwin

package cropimage

import "errors"

func availableBytes(string) (uint64, error) {
	return 0, errors.New("statfs no disponible en esta plataforma")
}
