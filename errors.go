package cropimage

import "errors"

var (
	ErrInvalidConfig = errors.New("configuración de recorte inválida")
	ErrDecode        = errors.New("no se pudo decodificar la imagen")
	ErrUnsupported   = errors.New("tipo de archivo no soportado")
	ErrSave          = errors.New("no se pudo guardar el recorte")
	ErrNoTarget      = errors.New("destino de salida no definido")
	ErrClosed        = errors.New("sesión finalizada")
	ErrBusy          = errors.New("trabajo en segundo plano en curso")
)
