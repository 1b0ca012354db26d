// Package rest exposes analysis and normalization over HTTP.
package rest

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/AnyUserName/graynorm/internal/encoder"
	"github.com/AnyUserName/graynorm/internal/imageio"
	"github.com/AnyUserName/graynorm/internal/normalize"
	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/AnyUserName/graynorm/internal/preset"
	"github.com/AnyUserName/graynorm/internal/report"
	"github.com/AnyUserName/graynorm/internal/stats"
	"github.com/AnyUserName/graynorm/internal/tone"
	"github.com/gin-gonic/gin"
)

// MaxUploadBytes bounds the multipart memory used for one request.
const MaxUploadBytes = 64 << 20

// DefaultMaxPixels caps the decoded size of an upload (100 megapixels).
const DefaultMaxPixels = 100_000_000

// Config holds server settings.
type Config struct {
	Addr    string
	Luma    pixbuf.Luma
	Shards  int
	Quality int
	Verbose bool

	// MaxPixels rejects uploads whose header declares more pixels.
	// 0 selects DefaultMaxPixels.
	MaxPixels int
}

// Server wraps a gin engine with the normalizer routes.
type Server struct {
	cfg      Config
	registry *encoder.Registry
	engine   *gin.Engine
}

// New builds the router. gin's request logger is only attached in
// verbose mode.
func New(cfg Config) *Server {
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Verbose {
		r.Use(gin.Logger())
	}
	r.MaxMultipartMemory = MaxUploadBytes

	s := &Server{cfg: cfg, registry: encoder.NewRegistry(), engine: r}
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/presets", getPresets)
			v1.POST("/stats", s.postStats)
			v1.POST("/normalize", s.postNormalize)
		}
	}
	return s
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on cfg.Addr until the server fails.
func (s *Server) Run() error {
	return s.engine.Run(s.cfg.Addr)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func getPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": preset.Names()})
}

// readUpload decodes the multipart "image" field into a gray buffer.
func (s *Server) readUpload(c *gin.Context) (*pixbuf.Buffer, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, "", fmt.Errorf("missing image field: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	// The header is checked before decoding so a small file cannot
	// declare a huge raster.
	conf, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	if px := conf.Width * conf.Height; px > s.cfg.MaxPixels {
		return nil, "", fmt.Errorf("image is %dx%d, above the %d pixel limit", conf.Width, conf.Height, s.cfg.MaxPixels)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", err
	}

	img, err := imageio.Decode(f)
	if err != nil {
		return nil, "", err
	}
	buf, err := pixbuf.FromImage(img, s.cfg.Luma)
	if err != nil {
		return nil, "", err
	}
	return buf, path.Base(fh.Filename), nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) postStats(c *gin.Context) {
	buf, label, err := s.readUpload(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	in := normalize.Analyze(buf, label)
	c.JSON(http.StatusOK, gin.H{
		"stats":    in.Stats,
		"defaults": normalize.DefaultParams(in.Stats),
	})
}

// normalizeResponse is returned when the caller asks for ?report=json.
type normalizeResponse struct {
	Params  tone.Params      `json:"params"`
	Input   stats.Statistics `json:"input"`
	Output  stats.Statistics `json:"output"`
	Metrics report.Metrics   `json:"metrics"`
}

func (s *Server) postNormalize(c *gin.Context) {
	buf, label, err := s.readUpload(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	overrides, err := parseOverrides(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	format := c.DefaultPostForm("format", "png")
	enc := s.registry.Get(format)
	if enc == nil {
		badRequest(c, fmt.Errorf("unknown format %q", format))
		return
	}

	in := normalize.Analyze(buf, label)
	params := preset.Get(c.DefaultPostForm("preset", preset.DefaultName)).Resolve(in.Stats, overrides)
	res := normalize.Normalize(in, params, normalize.Options{Shards: s.cfg.Shards})

	if c.Query("report") == "json" {
		c.JSON(http.StatusOK, normalizeResponse{
			Params:  res.Params,
			Input:   in.Stats,
			Output:  res.Output.Stats,
			Metrics: report.FromChange(res.Metrics),
		})
		return
	}

	data, err := imageio.Encode(res.Output.Buffer, enc, s.cfg.Quality)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	m := res.Metrics
	c.Header("X-Graynorm-Params", res.Params.String())
	c.Header("X-Graynorm-Contrast-Gain", formatRatio(m.ContrastGainRatio))
	c.Header("X-Graynorm-Stddev-Gain", formatRatio(m.StdDevGainRatio))
	c.Header("X-Graynorm-Mean-Delta", strconv.FormatFloat(m.MeanDelta, 'f', 4, 64))
	c.Header("X-Graynorm-Entropy-Delta", strconv.FormatFloat(m.EntropyDelta, 'f', 4, 64))
	c.Data(http.StatusOK, "image/"+enc.Format(), data)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64) // +Inf renders as "+Inf"
}

// parseOverrides reads optional black, white and gamma form values.
func parseOverrides(c *gin.Context) (preset.Overrides, error) {
	var o preset.Overrides
	if v, ok := c.GetPostForm("black"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("black: %w", err)
		}
		o.Black = &n
	}
	if v, ok := c.GetPostForm("white"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("white: %w", err)
		}
		o.White = &n
	}
	if v, ok := c.GetPostForm("gamma"); ok && v != "" {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, fmt.Errorf("gamma: %w", err)
		}
		o.Gamma = &g
	}
	return o, nil
}
