package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/AnyUserName/graynorm/internal/preset"
	"github.com/AnyUserName/graynorm/internal/report"
)

func writeFixture(t *testing.T, path string, lo, hi uint8) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewGray(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			v := int(lo) + (int(hi)-int(lo))*x/31
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if filepath.Ext(path) == ".jpg" {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 100})
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatal(err)
	}
}

func TestScanImages(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "a.png"), 0, 255)
	writeFixture(t, filepath.Join(dir, "a.jpg"), 0, 255)
	writeFixture(t, filepath.Join(dir, "sub", "b.png"), 0, 255)
	writeFixture(t, filepath.Join(dir, ".hidden", "c.png"), 0, 255)
	writeFixture(t, filepath.Join(dir, "out", "d.png"), 0, 255)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	sources, err := ScanImages(dir, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}
	keys := map[string]string{}
	for _, s := range sources {
		keys[s.Key] = s.Format
	}
	want := map[string]string{"a-jpeg": "jpeg", "a-png": "png", "sub/b": "png"}
	if len(keys) != len(want) {
		t.Fatalf("keys: got %v, want %v", keys, want)
	}
	for k, f := range want {
		if keys[k] != f {
			t.Errorf("key %q: got format %q, want %q", k, keys[k], f)
		}
	}
}

func TestScanImages_SuffixedKeyStillUnique(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "a.png"), 0, 255)
	writeFixture(t, filepath.Join(dir, "a.jpg"), 0, 255)
	writeFixture(t, filepath.Join(dir, "a-png.png"), 0, 255)

	sources, err := ScanImages(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, s := range sources {
		if prev, dup := got[s.Key]; dup {
			t.Errorf("key %q shared by %s and %s", s.Key, prev, s.RelPath)
		}
		got[s.Key] = s.RelPath
	}
	want := map[string]string{"a-png": "a-png.png", "a-jpeg": "a.jpg", "a-png-2": "a.png"}
	for k, rel := range want {
		if got[k] != rel {
			t.Errorf("key %q: got %q, want %q", k, got[k], rel)
		}
	}

	rep, err := New(Config{InputDir: dir, OutputDir: t.TempDir(), Workers: 2}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rep.Entries) != 3 || rep.Totals.Images != 3 || rep.Totals.Failed != 0 {
		t.Errorf("report: got %d entries, totals %+v, want 3 images and no failures", len(rep.Entries), rep.Totals)
	}
}

func TestRun_NormalizesDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFixture(t, filepath.Join(in, "dim.png"), 60, 120)
	writeFixture(t, filepath.Join(in, "cards", "wide.png"), 10, 240)
	os.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0o644)

	var logged atomic.Int32
	p := New(Config{
		InputDir:  in,
		OutputDir: out,
		Preset:    preset.Get("auto"),
		Workers:   2,
		Shards:    2,
		Log:       func(string, ...any) { logged.Add(1) },
	})
	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if rep.Totals.Images != 2 || rep.Totals.Failed != 1 {
		t.Errorf("totals: got %+v, want 2 images and 1 failure", rep.Totals)
	}
	dim, ok := rep.Entries["dim"]
	if !ok {
		t.Fatalf("entry dim missing: %v", rep.Entries)
	}
	if dim.Params.Black != 60 || dim.Params.White != 120 {
		t.Errorf("dim params: got %v", dim.Params)
	}
	if dim.Output.Min != 0 || dim.Output.Max != 255 {
		t.Errorf("dim output range: %d..%d", dim.Output.Min, dim.Output.Max)
	}
	if dim.Input.SourceLabel != "dim.png" || dim.Output.SourceLabel != "dim.png (normalized)" {
		t.Errorf("labels: %q / %q", dim.Input.SourceLabel, dim.Output.SourceLabel)
	}
	if logged.Load() == 0 {
		t.Error("no progress logged")
	}

	if err := report.WriteJSON(rep, filepath.Join(out, report.FileName)); err != nil {
		t.Fatal(err)
	}
	if errs := report.Validate(rep, out); len(errs) != 0 {
		t.Errorf("report does not validate: %v", errs)
	}
}

func TestRun_Errors(t *testing.T) {
	empty := t.TempDir()
	if _, err := New(Config{InputDir: empty, OutputDir: t.TempDir()}).Run(context.Background()); err == nil {
		t.Error("empty input directory should fail")
	}

	in := t.TempDir()
	writeFixture(t, filepath.Join(in, "x.png"), 0, 10)
	if _, err := New(Config{InputDir: in, OutputDir: t.TempDir(), Format: "gif"}).Run(context.Background()); err == nil {
		t.Error("unknown format should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Config{InputDir: in, OutputDir: t.TempDir(), Workers: 1}).Run(ctx); err == nil {
		t.Error("cancelled run with a single image should fail")
	}
}

func TestDefaultWorkers(t *testing.T) {
	if got := DefaultWorkers(0); got < 1 {
		t.Errorf("unknown memory: got %d workers", got)
	}
	if got := DefaultWorkers(64 << 20); got != 1 {
		t.Errorf("64 MB: got %d workers, want 1", got)
	}
}
