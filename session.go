package cropimage

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

const (
	msgWait      = "Espere…"
	msgSaving    = "Guardando imagen…"
	msgMultiFace = "Se encontraron varios rostros: elija uno para recortar"
)

// Opener opens the destination of a confirmed crop.
type Opener func(target string) (io.WriteCloser, error)

func OpenFile(target string) (io.WriteCloser, error) {
	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(target)
}

// Env carries the capabilities a session depends on. Zero fields get
// defaults; a nil Finder disables face detection.
type Env struct {
	Codec     ImageCodec
	Finder    FaceFinder
	Suggester Suggester
	Notifier  Notifier
	Opener    Opener
	Storage   *StorageRoots
	Logger    *slog.Logger
}

func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Codec == nil {
		e.Codec = NewCodec()
	}
	if e.Notifier == nil {
		e.Notifier = NewLogNotifier(e.Logger)
	}
	if e.Opener == nil {
		e.Opener = OpenFile
	}
	return e
}

type Disposition int

const (
	Canceled Disposition = iota
	Confirmed
)

func (d Disposition) String() string {
	if d == Confirmed {
		return "confirmed"
	}
	return "canceled"
}

// Result is what the caller of a session gets back. Data is set for inline
// results, Target for crops written to a destination.
type Result struct {
	Disposition Disposition
	Action      string
	Data        image.Image
	Target      string
	ImagePath   string
	Crop        image.Rectangle
	Faces       int
	Orientation int
	Err         error
}

// State is a snapshot of the interactive crop state.
type State struct {
	Bounds        image.Rectangle
	Highlights    []image.Rectangle
	Active        int
	Crop          image.Rectangle
	Mode          CropMode
	WaitingToPick bool
	Orientation   int
	Saving        bool
}

// Session is one crop interaction: load, face scan, placement, user
// adjustment and save. Its fields below ui are owned by the loop goroutine.
type Session struct {
	req Request
	env Env
	log *slog.Logger
	ctx context.Context

	ui *looper
	bg *worker

	view          *CropView
	bitmap        image.Image
	faces         int
	waitingToPick bool
	saving        bool
	scanning      bool
	generation    int

	finishing  atomic.Bool
	ready      chan struct{}
	readyOnce  sync.Once
	done       chan struct{}
	result     Result
	finishOnce sync.Once
	closeOnce  sync.Once
}

// Open validates req, loads the image and starts face detection. Invalid
// configuration is returned as an error. A source that cannot be decoded
// yields a session that is already finished with a canceled result.
func Open(ctx context.Context, req Request, env Env) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env = env.withDefaults()
	if req.NoFaceDetection {
		env.Finder = nil
	}
	s := &Session{
		req:   req,
		env:   env,
		log:   env.Logger.With("image", req.ImagePath),
		ctx:   context.WithoutCancel(ctx),
		ui:    newLooper(),
		bg:    newWorker(),
		view:  NewCropView(req.Crop),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}

	if env.Storage != nil {
		if msg := StorageWarning(env.Storage.PicturesRemaining()); msg != "" {
			env.Notifier.Notify(msg)
		}
	}

	bitmap, err := LoadImage(env.Codec, req.ImagePath)
	if err != nil {
		s.log.Error("imagen no disponible, se cierra la sesión", "err", err)
		s.finish(Result{Disposition: Canceled, ImagePath: req.ImagePath, Err: err})
		return s, nil
	}
	s.bitmap = bitmap
	s.ui.post(s.startFaceDetection)
	return s, nil
}

func (s *Session) startFaceDetection() {
	if s.finishing.Load() {
		return
	}
	s.view.SetImage(s.bitmap)
	s.runFaceDetection()
}

func (s *Session) runFaceDetection() {
	if s.scanning {
		s.log.Debug("detección en curso, se omite")
		return
	}
	s.scanning = true
	img := s.view.Image()
	gen := s.generation
	finder := s.env.Finder
	done := s.env.Notifier.Busy(msgWait)
	s.bg.start(func() {
		defer done()
		faces, inv, err := ScanFaces(s.ctx, finder, img)
		if err != nil {
			faces = nil
		}
		s.ui.post(func() { s.applyFaces(gen, img, faces, inv) })
	}, done)
}

func (s *Session) applyFaces(gen int, img image.Image, faces []Face, inv float64) {
	s.scanning = false
	if s.finishing.Load() {
		return
	}
	if gen != s.generation {
		s.runFaceDetection()
		return
	}

	bounds := img.Bounds()
	regions := PlaceRegions(faces, inv, bounds, s.view.aspectX, s.view.aspectY)
	if len(faces) == 0 && s.env.Suggester != nil {
		if r, err := s.env.Suggester.Suggest(img, s.view.aspectX, s.view.aspectY); err == nil && !r.Empty() {
			regions = []image.Rectangle{r}
		} else if err != nil {
			s.log.Warn("sugerencia de recorte falló", "err", err)
		}
	}

	s.faces = len(faces)
	s.waitingToPick = len(faces) > 1
	s.view.SetHighlights(regions)
	s.log.Debug("regiones ubicadas", "faces", len(faces), "regions", len(regions))
	if len(faces) > 1 {
		s.env.Notifier.Notify(msgMultiFace)
	}
	s.markReady()
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Ready is closed once the first set of regions has been placed or the
// session has finished.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Done is closed when the session has a result.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		return s.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// do runs fn on the loop unless the session is finishing.
func (s *Session) do(fn func() error) error {
	var err error
	if !s.ui.call(func() {
		if s.finishing.Load() {
			err = ErrClosed
			return
		}
		err = fn()
	}) {
		return ErrClosed
	}
	return err
}

func (s *Session) State() (State, error) {
	var st State
	err := s.do(func() error {
		st = State{
			Highlights:    s.view.Highlights(),
			Active:        s.view.Active(),
			Crop:          s.view.CropRect(),
			Mode:          s.view.Mode(),
			WaitingToPick: s.waitingToPick,
			Orientation:   s.view.Orientation(),
			Saving:        s.saving,
		}
		if img := s.view.Image(); img != nil {
			st.Bounds = img.Bounds()
		}
		return nil
	})
	return st, err
}

// Select makes region i the crop rectangle.
func (s *Session) Select(i int) error {
	return s.do(func() error {
		if err := s.view.Select(i); err != nil {
			return err
		}
		s.waitingToPick = false
		return nil
	})
}

func (s *Session) SetCropRect(r image.Rectangle) (image.Rectangle, error) {
	var got image.Rectangle
	err := s.do(func() error {
		got = s.view.SetCropRect(r)
		return nil
	})
	return got, err
}

// Rotate turns the image clockwise by deg and runs face detection again.
func (s *Session) Rotate(deg int) error {
	return s.do(func() error {
		if s.saving {
			return ErrBusy
		}
		if err := s.view.Rotate(deg); err != nil {
			return err
		}
		s.bitmap = s.view.Image()
		s.generation++
		s.runFaceDetection()
		return nil
	})
}

func (s *Session) RotateLeft() error  { return s.Rotate(270) }
func (s *Session) RotateRight() error { return s.Rotate(90) }

// Save confirms the current crop. Calls made while a save is in flight are
// ignored. ErrBusy is returned while no region is placed yet, e.g. during
// the scan that follows a rotation.
func (s *Session) Save() error {
	return s.do(s.onSave)
}

func (s *Session) onSave() error {
	if s.saving {
		return nil
	}
	if s.view.CropRect().Empty() {
		return ErrBusy
	}
	s.saving = true

	cropped, err := s.view.Cropped()
	if err != nil {
		s.log.Error("no se pudo recortar", "err", err)
		s.finish(Result{Disposition: Canceled, ImagePath: s.req.ImagePath, Err: fmt.Errorf("%w: %w", ErrSave, err)})
		return nil
	}
	base := Result{
		ImagePath:   s.req.ImagePath,
		Crop:        s.view.CropRect(),
		Faces:       s.faces,
		Orientation: s.view.Orientation(),
	}

	if s.req.ReturnData {
		res := base
		res.Disposition = Confirmed
		res.Action = ActionInlineData
		res.Data = cropped
		s.finish(res)
		return nil
	}

	base.Target = s.req.Target()
	done := s.env.Notifier.Busy(msgSaving)
	s.bg.start(func() {
		defer done()
		s.finish(s.saveOutput(cropped, base))
	}, done)
	return nil
}

func (s *Session) saveOutput(cropped image.Image, res Result) Result {
	res.Disposition = Canceled
	target := res.Target
	if target == "" {
		s.log.Error("destino de salida no definido")
		res.Err = ErrNoTarget
		return res
	}
	w, err := s.env.Opener(target)
	if err != nil {
		s.log.Error("no se pudo abrir el destino", "target", target, "err", err)
		res.Err = fmt.Errorf("%w: %w", ErrSave, err)
		return res
	}
	encErr := s.env.Codec.Encode(w, cropped, s.req.Crop.Format, OutputQuality)
	closeErr := w.Close()
	if encErr != nil || closeErr != nil {
		err := encErr
		if err == nil {
			err = closeErr
		}
		s.log.Error("no se pudo escribir el recorte", "target", target, "err", err)
		res.Err = fmt.Errorf("%w: %w", ErrSave, err)
		return res
	}
	res.Disposition = Confirmed
	return res
}

// Discard ends the session without a crop.
func (s *Session) Discard() error {
	return s.do(func() error {
		s.finish(Result{Disposition: Canceled, ImagePath: s.req.ImagePath})
		return nil
	})
}

func (s *Session) finish(res Result) {
	s.finishOnce.Do(func() {
		s.finishing.Store(true)
		s.result = res
		s.log.Debug("sesión finalizada", "result", res.Disposition, "target", res.Target, "err", res.Err)
		close(s.done)
		s.markReady()
	})
}

// Close cancels the session if it has no result yet, drops pending
// callbacks and waits for a running background job to complete.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.finish(Result{Disposition: Canceled, ImagePath: s.req.ImagePath, Err: ErrClosed})
		s.ui.call(func() {
			s.view.SetImage(nil)
			s.bitmap = nil
		})
		s.ui.quit()
		s.bg.stop()
	})
}
