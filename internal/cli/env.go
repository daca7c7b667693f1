package cli

import (
	"fmt"
	"strings"

	"github.com/user0608/cropimage"
	"github.com/user0608/cropimage/opencv"
	"github.com/user0608/cropimage/pigoface"
)

type detectorOptions struct {
	Backend string
	Cascade string
	Eyes    string
	Codec   string
}

// buildEnv wires the detector and codec chosen on the command line.
func buildEnv(opts detectorOptions, smart bool) (cropimage.Env, error) {
	var env cropimage.Env
	switch strings.ToLower(opts.Codec) {
	case "", "std":
		env.Codec = cropimage.NewCodec()
	case "opencv":
		env.Codec = opencv.NewCodec()
	default:
		return env, fmt.Errorf("códec desconocido %q", opts.Codec)
	}

	switch strings.ToLower(opts.Backend) {
	case "none", "":
	case "pigo":
		f, err := pigoface.Load(opts.Cascade, opts.Eyes, nil)
		if err != nil {
			return env, err
		}
		env.Finder = f
	case "opencv":
		f, err := opencv.NewCascadeFinder(opts.Cascade, opts.Eyes)
		if err != nil {
			return env, err
		}
		env.Finder = f
	default:
		return env, fmt.Errorf("detector desconocido %q", opts.Backend)
	}

	if smart {
		env.Suggester = cropimage.NewSmartSuggester()
	}
	return env, nil
}
