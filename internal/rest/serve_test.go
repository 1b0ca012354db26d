package rest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dimPNG encodes a 16x4 horizontal ramp from lo to hi.
func dimPNG(t *testing.T, lo, hi uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(int(lo) + (int(hi)-int(lo))*x/15)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, h http.Handler, url string, file []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("image", "dim.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	h := New(Config{}).Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestPresets(t *testing.T) {
	h := New(Config{}).Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Presets []string `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got.Presets, "auto")
}

func TestStats(t *testing.T) {
	h := New(Config{}).Handler()
	w := upload(t, h, "/api/v1/stats", dimPNG(t, 60, 120), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Stats struct {
			SourceLabel string `json:"source_label"`
			Min         int    `json:"min"`
			Max         int    `json:"max"`
			PixelCount  int    `json:"pixel_count"`
		} `json:"stats"`
		Defaults struct {
			Black int     `json:"black"`
			White int     `json:"white"`
			Gamma float64 `json:"gamma"`
		} `json:"defaults"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "dim.png", got.Stats.SourceLabel)
	assert.Equal(t, 60, got.Stats.Min)
	assert.Equal(t, 120, got.Stats.Max)
	assert.Equal(t, 64, got.Stats.PixelCount)
	assert.Equal(t, 60, got.Defaults.Black)
	assert.Equal(t, 120, got.Defaults.White)
	assert.Equal(t, 1.0, got.Defaults.Gamma)
}

func TestNormalize_Image(t *testing.T) {
	h := New(Config{}).Handler()
	w := upload(t, h, "/api/v1/normalize", dimPNG(t, 60, 120), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "black=60 white=120 gamma=1.00", w.Header().Get("X-Graynorm-Params"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	g, ok := img.(*image.Gray)
	require.True(t, ok, "expected gray output, got %T", img)
	assert.Equal(t, uint8(0), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), g.GrayAt(15, 0).Y)
}

func TestNormalize_ReportJSON(t *testing.T) {
	h := New(Config{}).Handler()
	w := upload(t, h, "/api/v1/normalize?report=json", dimPNG(t, 60, 120), map[string]string{
		"black": "0",
		"white": "255",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got normalizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint8(0), got.Params.Black)
	assert.Equal(t, uint8(255), got.Params.White)
	// The identity window leaves the image unchanged.
	assert.Equal(t, got.Input.Mean, got.Output.Mean)
	require.NotNil(t, got.Metrics.ContrastGainRatio)
	assert.InDelta(t, 1.0, *got.Metrics.ContrastGainRatio, 1e-12)
}

func TestNormalize_BadRequests(t *testing.T) {
	h := New(Config{}).Handler()

	cases := []struct {
		name   string
		image  []byte
		fields map[string]string
	}{
		{"missing image", nil, nil},
		{"not an image", []byte("hello"), nil},
		{"bad black", dimPNG(t, 0, 10), map[string]string{"black": "dark"}},
		{"bad gamma", dimPNG(t, 0, 10), map[string]string{"gamma": "x"}},
		{"bad format", dimPNG(t, 0, 10), map[string]string{"format": "gif"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := upload(t, h, "/api/v1/normalize", tc.image, tc.fields)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

// pngHeader returns only the signature and IHDR chunk of a PNG that
// declares a w x h 8-bit gray raster.
func pngHeader(w, h uint32) []byte {
	var ihdr bytes.Buffer
	ihdr.WriteString("IHDR")
	binary.Write(&ihdr, binary.BigEndian, w)
	binary.Write(&ihdr, binary.BigEndian, h)
	ihdr.Write([]byte{8, 0, 0, 0, 0}) // depth 8, gray, deflate, no filter, no interlace

	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&out, binary.BigEndian, uint32(ihdr.Len()-4))
	out.Write(ihdr.Bytes())
	binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(ihdr.Bytes()))
	return out.Bytes()
}

func TestUpload_DeclaredSizeOverLimit(t *testing.T) {
	h := New(Config{}).Handler()
	w := upload(t, h, "/api/v1/stats", pngHeader(100_000, 100_000), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "pixel limit")
}

func TestUpload_ConfiguredLimit(t *testing.T) {
	h := New(Config{MaxPixels: 32}).Handler()
	w := upload(t, h, "/api/v1/normalize", dimPNG(t, 60, 120), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "16x4")

	h = New(Config{MaxPixels: 64}).Handler()
	w = upload(t, h, "/api/v1/normalize", dimPNG(t, 60, 120), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
