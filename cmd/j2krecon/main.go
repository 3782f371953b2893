// Command j2krecon decomposes an image into tiled wavelet code-blocks held
// in memory and reconstructs it through the ROI, dequantization, inverse
// wavelet and inverse component transform stages.
package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/image/tiff"

	j2k "github.com/ajroetker/go-j2krecon"
	"github.com/ajroetker/go-j2krecon/internal/logging"
)

const (
	appName    = "j2krecon"
	appVersion = "v0.1.0"
)

type flags struct {
	input, output string
	width, height int
	tileSize      int
	levels        int
	resLevel      int
	roiShift      int
	roi           string
	lossy         bool
	verify        bool
	logLevel      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:     appName + " -o out.png",
		Short:   "Round-trip an image through tiled wavelet reconstruction",
		Version: appVersion,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := j2k.LoadOptions{
				TileSize: f.tileSize,
				Levels:   f.levels,
				ROIShift: f.roiShift,
				Lossy:    f.lossy,
				LogLevel: strings.TrimSpace(f.logLevel),
			}
			if cmd.Flags().Changed("res-level") {
				opts.ResLevel = &f.resLevel
			}
			cfg, err := j2k.LoadConfig(opts)
			if err != nil {
				return err
			}
			logging.SetLevelFromString(cfg.LogLevel)
			return run(cfg, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input PNG, JPEG or TIFF (default: synthetic gradient)")
	fl.StringVarP(&f.output, "output", "o", "", "output file, .png or .tif")
	fl.IntVar(&f.width, "width", 256, "synthetic image width")
	fl.IntVar(&f.height, "height", 256, "synthetic image height")
	fl.IntVarP(&f.tileSize, "tile-size", "t", 0, "nominal tile size (0 for one tile)")
	fl.IntVarP(&f.levels, "levels", "l", 0, "wavelet decomposition levels")
	fl.IntVarP(&f.resLevel, "res-level", "r", -1, "resolution level to reconstruct (-1 for full)")
	fl.IntVar(&f.roiShift, "roi-shift", 0, "max-shift ROI boost")
	fl.StringVar(&f.roi, "roi", "", "ROI rectangle x0,y0,x1,y1 in tile-component samples")
	fl.BoolVar(&f.lossy, "lossy", false, "use the 9/7 filter and ICT")
	fl.BoolVar(&f.verify, "verify", false, "report the largest sample error against the input")
	fl.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func run(cfg *j2k.Config, f flags) error {
	src, err := loadInput(f)
	if err != nil {
		return err
	}
	planar, err := j2k.NewPlanarImageFromImage(src)
	if err != nil {
		return err
	}
	tiler, err := j2k.NewTiler(planar, cfg.ImageX, cfg.ImageY, cfg.TileX, cfg.TileY, cfg.TileWidth, cfg.TileHeight)
	if err != nil {
		return err
	}
	roi, err := parseRect(f.roi)
	if err != nil {
		return err
	}
	ms, err := j2k.BuildMemSource(tiler, j2k.MemSourceOptions{
		Levels:    cfg.Levels,
		Filter:    cfg.Filter(),
		CBlkW:     cfg.CodeBlockSize,
		CBlkH:     cfg.CodeBlockSize,
		Transform: transformFor(cfg, planar.NumComps()),
		Quantize:  true,
		Step:      cfg.Step,
		ROIShift:  cfg.ROIShift,
		ROI:       roi,
	})
	if err != nil {
		return errors.Wrap(err, "decompose")
	}
	nx, ny := ms.NumTiles()
	logging.Info("decomposed %dx%d image into %dx%d tiles", ms.ImgWidth(), ms.ImgHeight(), nx, ny)

	deq := j2k.NewDequantizer(j2k.NewROIDeScaler(ms, ms.Specs()))
	wt, err := j2k.NewInvWT(deq, j2k.InvWTOptions{ResLevel: cfg.ResLevel})
	if err != nil {
		return err
	}
	ct := j2k.NewInvCompTransf(wt, ms.Specs(), wt)
	out, err := j2k.ToImage(ct)
	if err != nil {
		return errors.Wrap(err, "reconstruct")
	}
	if f.verify {
		if cfg.ResLevel >= 0 && cfg.ResLevel < cfg.Levels {
			logging.Warn("skipping verification of a reduced-resolution image")
		} else {
			logging.Info("largest sample error: %d", maxError(src, out))
		}
	}
	return writeOutput(f.output, out)
}

func transformFor(cfg *j2k.Config, ncomps int) j2k.ComponentTransform {
	switch {
	case ncomps < 3:
		return j2k.CTNone
	case cfg.Lossy:
		return j2k.CTICT
	default:
		return j2k.CTRCT
	}
}

func loadInput(f flags) (image.Image, error) {
	if f.input == "" {
		return gradient(f.width, f.height), nil
	}
	file, err := os.Open(f.input)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.input)
	}
	return img, nil
}

// gradient returns a w x h RGB test pattern.
func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: uint8((x ^ y) & 0xFF),
				A: 255,
			})
		}
	}
	return img
}

func parseRect(s string) (image.Rectangle, error) {
	if s == "" {
		return image.Rectangle{}, nil
	}
	var x0, y0, x1, y1 int
	if _, err := fmt.Sscanf(s, "%d,%d,%d,%d", &x0, &y0, &x1, &y1); err != nil {
		return image.Rectangle{}, errors.Wrapf(err, "parse ROI %q", s)
	}
	return image.Rect(x0, y0, x1, y1), nil
}

func maxError(a, b image.Image) int {
	r := a.Bounds()
	worst := 0
	for y := range r.Dy() {
		for x := range r.Dx() {
			ar, ag, ab, _ := a.At(r.Min.X+x, r.Min.Y+y).RGBA()
			br, bg, bb, _ := b.At(x, y).RGBA()
			for _, d := range [3]int{int(ar>>8) - int(br>>8), int(ag>>8) - int(bg>>8), int(ab>>8) - int(bb>>8)} {
				worst = max(worst, d, -d)
			}
		}
	}
	return worst
}

func writeOutput(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(file, img)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "write %s", path)
}
