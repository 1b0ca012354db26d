package mapper

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/AnyUserName/graynorm/internal/tone"
	"github.com/valyala/fastrand"
)

func mustBuffer(t testing.TB, w, h int, samples []uint8) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(w, h, samples)
	if err != nil {
		t.Fatalf("buffer: %v", err)
	}
	return b
}

func noise(n int, seed uint32) []uint8 {
	var rng fastrand.RNG
	rng.Seed(seed)
	s := make([]uint8, n)
	for i := range s {
		s[i] = uint8(rng.Uint32n(256))
	}
	return s
}

func TestApply_Identity(t *testing.T) {
	in := mustBuffer(t, 2, 2, []uint8{0, 64, 192, 255})
	lut := tone.BuildCurve(0, 255, 1.0)
	out := Apply(in, &lut)
	if !bytes.Equal(out.Samples(), in.Samples()) {
		t.Errorf("identity: got %v, want %v", out.Samples(), in.Samples())
	}
	if out == in {
		t.Error("Apply returned its input")
	}
}

func TestApply_Window(t *testing.T) {
	in := mustBuffer(t, 2, 2, []uint8{0, 64, 192, 255})
	lut := tone.BuildCurve(64, 192, 1.0)
	out := Apply(in, &lut)
	want := []uint8{0, 0, 255, 255}
	if !bytes.Equal(out.Samples(), want) {
		t.Errorf("window: got %v, want %v", out.Samples(), want)
	}
	if out.Width() != 2 || out.Height() != 2 {
		t.Errorf("dims: got %dx%d, want 2x2", out.Width(), out.Height())
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	samples := noise(4096, 7)
	in := mustBuffer(t, 64, 64, samples)
	var invert tone.LUT
	for i := range invert {
		invert[i] = uint8(255 - i)
	}
	_ = Apply(in, &invert)
	if !bytes.Equal(in.Samples(), samples) {
		t.Error("input buffer was modified")
	}
}

func TestApply_Empty(t *testing.T) {
	in := mustBuffer(t, 0, 0, nil)
	lut := tone.Identity()
	out := Apply(in, &lut)
	if out.PixelCount() != 0 {
		t.Errorf("pixel count: got %d, want 0", out.PixelCount())
	}
}

func TestApplyParallel_MatchesSerial(t *testing.T) {
	in := mustBuffer(t, 800, 600, noise(800*600, 42))
	lut := tone.BuildCurve(30, 220, 1.8)
	want := Apply(in, &lut).Samples()
	for _, shards := range []int{0, 1, 2, 5, 16, 1000} {
		got := ApplyParallel(in, &lut, shards).Samples()
		if !bytes.Equal(got, want) {
			t.Errorf("shards=%d: parallel output differs from serial", shards)
		}
	}
}

func TestApplyParallel_MoreShardsThanProcs(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(1))
	in := mustBuffer(t, 1024, 512, noise(1024*512, 7))
	lut := tone.BuildCurve(10, 200, 0.6)
	if !bytes.Equal(ApplyParallel(in, &lut, 8).Samples(), Apply(in, &lut).Samples()) {
		t.Error("shards queued behind a single proc wrote wrong samples")
	}
}

func BenchmarkApply(b *testing.B) {
	in := mustBuffer(b, 1920, 1080, noise(1920*1080, 1))
	lut := tone.BuildCurve(16, 235, 1.2)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Apply(in, &lut)
	}
}

func BenchmarkApplyParallel(b *testing.B) {
	in := mustBuffer(b, 1920, 1080, noise(1920*1080, 1))
	lut := tone.BuildCurve(16, 235, 1.2)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = ApplyParallel(in, &lut, 8)
	}
}
