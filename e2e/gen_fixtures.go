//go:build ignore

// gen_fixtures creates small low-contrast images for the batch smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "scans"), 0o755)

	// Washed-out color photo stand-in (JPEG, 400x225, levels 90..170)
	writeJPEG(filepath.Join(dir, "banner.jpg"), colorRamp(400, 225, 90, 170))

	// Dim gray scans (PNG, 200x150 each)
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("scan-%d.png", i)
		lo := uint8(i * 20)
		writePNG(filepath.Join(dir, "scans", name), grayRamp(200, 150, lo, lo+60))
	}

	// Flat image: nothing to stretch
	writePNG(filepath.Join(dir, "flat.png"), grayRamp(64, 64, 128, 128))

	// TIFF with a narrow bright band
	writeTIFF(filepath.Join(dir, "bright.tif"), grayRamp(120, 80, 200, 240))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 6 fixtures in %s\n", dir)
}

func grayRamp(w, h int, lo, hi uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := int(lo) + (int(hi)-int(lo))*x/max(w-1, 1)
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

func colorRamp(w, h int, lo, hi uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	span := int(hi) - int(lo)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(int(lo) + span*x/w),
				G: uint8(int(lo) + span*y/h),
				B: uint8(int(lo) + span/2),
				A: 255,
			})
		}
	}
	return img
}

func create(path string) *os.File {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return f
}

func writePNG(path string, img image.Image) {
	f := create(path)
	defer f.Close()
	png.Encode(f, img)
}

func writeJPEG(path string, img image.Image) {
	f := create(path)
	defer f.Close()
	jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

func writeTIFF(path string, img image.Image) {
	f := create(path)
	defer f.Close()
	tiff.Encode(f, img, nil)
}
