package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/user0608/cropimage"
	"github.com/user0608/cropimage/internal/history"
	"github.com/user0608/cropimage/internal/logging"
	"github.com/user0608/cropimage/opencv"
	"github.com/user0608/cropimage/pigoface"
	"golang.org/x/time/rate"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newFinder picks the face detector named by FACE_BACKEND.
func newFinder(e *echo.Echo) cropimage.FaceFinder {
	switch backend := getenv("FACE_BACKEND", "pigo"); backend {
	case "none":
		return nil
	case "opencv":
		f, err := opencv.NewCascadeFinder(
			getenv("CASCADE_MODEL", "opencv_models/haarcascade_frontalface_default.xml"),
			os.Getenv("EYE_MODEL"),
		)
		if err != nil {
			e.Logger.Fatal(err)
		}
		return f
	default:
		f, err := pigoface.Load(getenv("CASCADE_MODEL", "models/facefinder"), os.Getenv("PUPLOC_MODEL"), nil)
		if err != nil {
			e.Logger.Fatal(err)
		}
		return f
	}
}

// closeFinder releases a detector that holds native resources.
func closeFinder(f cropimage.FaceFinder) {
	cl, ok := f.(io.Closer)
	if !ok {
		return
	}
	if err := cl.Close(); err != nil {
		log.Warnf("no se pudo liberar el detector: %v", err)
	}
}

func main() {
	logger, closer := logging.New(logging.Config{
		Level: getenv("LOG_LEVEL", "info"),
		File:  os.Getenv("LOG_FILE"),
		JSON:  true,
	})
	defer closer.Close()

	e := echo.New()
	e.Logger.SetLevel(log.INFO)
	e.HideBanner = true

	limit := 5.0
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.Logger.Fatalf("RATE_LIMIT inválido: %v", err)
		}
		limit = n
	}
	e.Use(middleware.RequestID())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(limit))))

	finder := newFinder(e)
	defer closeFinder(finder)
	env := cropimage.Env{Finder: finder, Logger: logger}

	var db *history.Store
	if url := os.Getenv("DATABASE_URL"); url != "" {
		var err error
		db, err = history.New(context.Background(), url)
		if err != nil {
			e.Logger.Fatalf("no se pudo conectar a la base de datos: %v", err)
		}
		defer db.Close(context.Background())
	}

	e.GET("/", func(c echo.Context) error { return c.JSON(http.StatusOK, "OK") })
	e.GET("/storage", NewStorageHandle(cropimage.DefaultStorageRoots()))
	e.POST("/crop", NewCropHandle(env, db))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		addr := getenv("LISTEN_ADDR", ":1323")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
