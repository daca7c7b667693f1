// example/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/user0608/cropimage"
	"github.com/user0608/cropimage/pigoface"
)

func main() {

	finder, err := pigoface.Load("models/facefinder", "models/puploc", nil)
	if err != nil {
		slog.Error("init", "err", err)
		return
	}
	c := cropimage.New(cropimage.Env{Finder: finder}, &cropimage.Options{Timeout: 10 * time.Second})
	defer c.Close()

	req, err := cropimage.ParseRequest(cropimage.Extras{
		cropimage.KeyImagePath: "input.jpg",
		cropimage.KeyOutput:    "output_face.jpg",
		cropimage.KeyAspectX:   3,
		cropimage.KeyAspectY:   4,
		cropimage.KeyOutputX:   480,
		cropimage.KeyOutputY:   640,
	})
	if err != nil {
		slog.Error("parámetros", "err", err)
		os.Exit(1)
	}

	start := time.Now()
	res, err := c.Process(context.Background(), req)
	if err != nil {
		slog.Error("procesar", "err", err)
		os.Exit(1)
	}
	fmt.Println("duration (s):", time.Since(start).Seconds())
	fmt.Printf("faces: %d, crop: %v, saved to %s\n", res.Faces, res.Crop, res.Target)
}
