package stats

import (
	"math"
	"testing"

	"github.com/AnyUserName/graynorm/internal/histogram"
	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"
)

func mustBuffer(t testing.TB, w, h int, samples []uint8) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(w, h, samples)
	if err != nil {
		t.Fatalf("buffer: %v", err)
	}
	return b
}

func TestCompute_FourLevels(t *testing.T) {
	b := mustBuffer(t, 2, 2, []uint8{0, 64, 192, 255})
	got := Compute(b, histogram.Build(b), "quad.png")

	want := Statistics{
		SourceLabel:     "quad.png",
		Width:           2,
		Height:          2,
		PixelCount:      4,
		Min:             0,
		Max:             255,
		Mean:            127.75,
		StdDev:          math.Sqrt((0.0 + 64*64 + 192*192 + 255*255)/4 - 127.75*127.75),
		DynamicRange:    255,
		UsedBins:        4,
		UtilizedRange:   255,
		BinsUsedPercent: 4.0 / 256 * 100,
		Entropy:         2,
	}
	opts := []cmp.Option{
		cmpopts.EquateApprox(0, 1e-9),
		cmpopts.IgnoreFields(Statistics{}, "Histogram"),
	}
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_Flat(t *testing.T) {
	s := make([]uint8, 50)
	for i := range s {
		s[i] = 100
	}
	st := Analyze(mustBuffer(t, 10, 5, s), "")
	if st.SourceLabel != DefaultLabel {
		t.Errorf("label: got %q, want %q", st.SourceLabel, DefaultLabel)
	}
	if st.Entropy != 0 {
		t.Errorf("entropy: got %v, want 0", st.Entropy)
	}
	if st.StdDev != 0 {
		t.Errorf("stddev: got %v, want 0", st.StdDev)
	}
	if st.Min != 100 || st.Max != 100 || st.DynamicRange != 0 {
		t.Errorf("extrema: got %d..%d range %d", st.Min, st.Max, st.DynamicRange)
	}
	if st.UsedBins != 1 || st.UtilizedRange != 0 {
		t.Errorf("bins: used %d span %d, want 1 and 0", st.UsedBins, st.UtilizedRange)
	}
}

func TestCompute_Empty(t *testing.T) {
	b := mustBuffer(t, 0, 7, nil)
	got := Analyze(b, "empty")
	want := Statistics{SourceLabel: "empty", Width: 0, Height: 7}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("empty statistics (-want +got):\n%s", diff)
	}
}

func TestCompute_MatchesDirectScanAndGonum(t *testing.T) {
	var rng fastrand.RNG
	for trial := 0; trial < 25; trial++ {
		rng.Seed(uint32(trial + 1))
		w, h := 1+int(rng.Uint32n(90)), 1+int(rng.Uint32n(90))
		// Narrow random windows exercise sparse histograms too.
		lo := rng.Uint32n(256)
		span := 1 + rng.Uint32n(256-lo)
		samples := make([]uint8, w*h)
		xs := make([]float64, len(samples))
		for i := range samples {
			samples[i] = uint8(lo + rng.Uint32n(span))
			xs[i] = float64(samples[i])
		}
		b := mustBuffer(t, w, h, samples)
		st := Analyze(b, "")

		scanLo, scanHi, _ := b.Extrema()
		if st.Min != scanLo || st.Max != scanHi {
			t.Fatalf("trial %d: histogram extrema %d..%d, direct scan %d..%d", trial, st.Min, st.Max, scanLo, scanHi)
		}

		mean, std := stat.PopMeanStdDev(xs, nil)
		if math.Abs(st.Mean-mean) > 1e-9 {
			t.Errorf("trial %d mean: got %v, want %v", trial, st.Mean, mean)
		}
		if math.Abs(st.StdDev-std) > 1e-6 {
			t.Errorf("trial %d stddev: got %v, want %v", trial, st.StdDev, std)
		}

		p := make([]float64, histogram.Bins)
		for v, c := range st.Histogram {
			p[v] = float64(c) / float64(st.PixelCount)
		}
		if want := stat.Entropy(p) / math.Ln2; math.Abs(st.Entropy-want) > 1e-9 {
			t.Errorf("trial %d entropy: got %v, want %v", trial, st.Entropy, want)
		}
		if st.Entropy < 0 || st.Entropy > 8 {
			t.Errorf("trial %d entropy out of [0,8]: %v", trial, st.Entropy)
		}
	}
}

func TestCompute_MaxEntropy(t *testing.T) {
	s := make([]uint8, 256*4)
	for i := range s {
		s[i] = uint8(i)
	}
	st := Analyze(mustBuffer(t, 256, 4, s), "")
	if math.Abs(st.Entropy-8) > 1e-12 {
		t.Errorf("uniform entropy: got %v, want 8", st.Entropy)
	}
	if st.BinsUsedPercent != 100 {
		t.Errorf("bins used: got %v, want 100", st.BinsUsedPercent)
	}
}
