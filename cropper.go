package cropimage

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"time"
)

var ErrCanceled = errors.New("recorte cancelado")

type Options struct {
	// Pick selects which face region to crop when several were found.
	Pick    int
	Timeout time.Duration

	// Rect, when set, replaces the placed region as a manual adjustment.
	Rect image.Rectangle
}

func DefaultOptions() Options {
	return Options{
		Pick:    0,
		Timeout: 30 * time.Second,
	}
}

// Cropper runs sessions without user interaction: the first placed region
// (or Options.Pick) is confirmed as-is.
type Cropper struct {
	opts Options
	env  Env
}

func New(env Env, opts *Options) *Cropper {
	if opts == nil {
		def := DefaultOptions()
		opts = &def
	}
	return &Cropper{opts: *opts, env: env.withDefaults()}
}

// Close releases the face finder when it holds native resources.
func (c *Cropper) Close() {
	if cl, ok := c.env.Finder.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			slog.Warn("no se pudo liberar el detector", "err", err)
		}
	}
}

func (c *Cropper) Process(ctx context.Context, req Request) (Result, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	s, err := Open(ctx, req, c.env)
	if err != nil {
		return Result{}, err
	}
	defer s.Close()

	select {
	case <-s.Ready():
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	if c.opts.Pick > 0 {
		if err := s.Select(c.opts.Pick); err != nil && !errors.Is(err, ErrClosed) {
			slog.Warn("región no disponible, se usa la primera", "pick", c.opts.Pick, "err", err)
		}
	}
	if !c.opts.Rect.Empty() {
		if _, err := s.SetCropRect(c.opts.Rect); err != nil && !errors.Is(err, ErrClosed) {
			return Result{}, err
		}
	}
	if err := s.Save(); err != nil && !errors.Is(err, ErrClosed) {
		return Result{}, err
	}
	res, err := s.Wait(ctx)
	if err != nil {
		return res, err
	}
	if res.Disposition != Confirmed {
		if res.Err == nil {
			res.Err = ErrCanceled
		}
		return res, res.Err
	}
	return res, nil
}
