package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
)

// noisePNG returns an opaque PNG of random pixels; noise does not compress,
// so the encoded size is close to w*h*3 bytes.
func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	r := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// site serves an article page whose first og:image is ogImage, followed by a
// second og:image that is never served, and the image at /img.png.
func site(t *testing.T, ogImage string, img []byte, imgStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		meta := ""
		if ogImage != "" {
			meta = fmt.Sprintf(`<meta property="og:image" content="%s">`, ogImage)
		}
		fmt.Fprintf(w, `<html><head><title>x</title>
<meta property="og:description" content="A page about things.">
%s
<meta property="og:image" content="/second.png">
</head><body>hi</body></html>`, meta)
	})
	mux.HandleFunc("/img.png", func(w http.ResponseWriter, r *http.Request) {
		if imgStatus != http.StatusOK {
			w.WriteHeader(imgStatus)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNormalizeSmallImageUnchanged(t *testing.T) {
	img := solidPNG(t, 64, 32, color.NRGBA{R: 200, A: 255})
	srv := site(t, "/img.png", img, http.StatusOK)
	n := New(Options{})

	p := n.Preview(context.Background(), srv.URL+"/article")
	if !p.Thumbnail.Present() {
		t.Fatalf("expected thumbnail")
	}
	if !bytes.Equal(p.Thumbnail.Data, img) {
		t.Fatalf("small image was re-encoded: got %d bytes want %d", len(p.Thumbnail.Data), len(img))
	}
	if p.Thumbnail.MimeType != "image/png" {
		t.Errorf("mime = %q", p.Thumbnail.MimeType)
	}
	if p.ImageURL != srv.URL+"/img.png" {
		t.Errorf("relative og:image not resolved: %q", p.ImageURL)
	}
	if p.Description != "A page about things." {
		t.Errorf("description = %q", p.Description)
	}
}

func TestNormalizeAbsent(t *testing.T) {
	img := solidPNG(t, 8, 8, color.White)
	cases := []struct {
		name    string
		ogImage string
		status  int
		path    string
	}{
		{name: "page not found", ogImage: "/img.png", status: http.StatusOK, path: "/missing"},
		{name: "image not found", ogImage: "/img.png", status: http.StatusNotFound, path: "/article"},
		{name: "image forbidden", ogImage: "/img.png", status: http.StatusForbidden, path: "/article"},
		{name: "image unreachable", ogImage: "http://127.0.0.1:1/img.png", status: http.StatusOK, path: "/article"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := site(t, tc.ogImage, img, tc.status)
			th := New(Options{}).Normalize(context.Background(), srv.URL+tc.path)
			if th.Present() {
				t.Fatalf("expected absent thumbnail, got %d bytes", th.Size())
			}
		})
	}
}

func TestNormalizeNoOGImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="description" content="x"></head></html>`)
	}))
	defer srv.Close()
	if th := New(Options{}).Normalize(context.Background(), srv.URL); th.Present() {
		t.Fatalf("expected absent thumbnail")
	}
}

func TestNormalizeUndecodableOversizedImage(t *testing.T) {
	garbage := bytes.Repeat([]byte("not an image "), 1000)
	srv := site(t, "/img.png", garbage, http.StatusOK)
	n := New(Options{MaxBytes: 1000})
	if th := n.Normalize(context.Background(), srv.URL+"/article"); th.Present() {
		t.Fatalf("expected absent thumbnail for undecodable data")
	}
}

func TestNormalizeLargeImageShrinks(t *testing.T) {
	img := noisePNG(t, 1300, 1300)
	if len(img) < 5_000_000 {
		t.Fatalf("fixture too small: %d bytes", len(img))
	}
	srv := site(t, "/img.png", img, http.StatusOK)
	n := New(Options{})

	th := n.Normalize(context.Background(), srv.URL+"/article")
	if !th.Present() {
		t.Fatalf("expected thumbnail")
	}
	if th.Size() > 1_000_000 {
		t.Fatalf("thumbnail is %d bytes, want <= 1000000", th.Size())
	}
	if th.MimeType != "image/jpeg" {
		t.Errorf("mime = %q", th.MimeType)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(th.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q", format)
	}
	if cfg.Width >= 1300 || cfg.Height >= 1300 {
		t.Errorf("dimensions %dx%d not smaller than 1300x1300", cfg.Width, cfg.Height)
	}
}

func TestShrinkStopsAtFloor(t *testing.T) {
	n := New(Options{MaxBytes: 10})
	out, err := n.Shrink(noisePNG(t, 100, 80))
	if err != nil {
		t.Fatalf("Shrink error: %v", err)
	}
	if len(out) <= 10 {
		t.Fatalf("a 10 byte jpeg is impossible, got %d", len(out))
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width < 10 || cfg.Height < 10 {
		t.Fatalf("went below floor: %dx%d", cfg.Width, cfg.Height)
	}
	// One more 0.9 step would have crossed the floor on the short side.
	if int(float64(cfg.Height)*0.9) >= 10 {
		t.Fatalf("stopped early at %dx%d", cfg.Width, cfg.Height)
	}
}

func TestShrinkCustomFloorAndScale(t *testing.T) {
	n := New(Options{MaxBytes: 10, Scale: 0.5, MinDimension: 20})
	out, err := n.Shrink(noisePNG(t, 160, 160))
	if err != nil {
		t.Fatalf("Shrink error: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 160 -> 80 -> 40 -> 20, next would be 10 < 20.
	if cfg.Width != 20 || cfg.Height != 20 {
		t.Fatalf("got %dx%d, want 20x20", cfg.Width, cfg.Height)
	}
}

func TestShrinkFlattensAlphaOnWhite(t *testing.T) {
	n := New(Options{})
	out, err := n.Shrink(solidPNG(t, 40, 40, color.NRGBA{}))
	if err != nil {
		t.Fatalf("Shrink error: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(20, 20).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("transparent pixel not flattened to white: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestShrinkWebP(t *testing.T) {
	n := New(Options{Format: "WebP", MaxBytes: 200_000})
	if n.MimeType() != "image/webp" {
		t.Fatalf("mime = %q", n.MimeType())
	}
	out, err := n.Shrink(noisePNG(t, 400, 300))
	if err != nil {
		t.Fatalf("Shrink error: %v", err)
	}
	if len(out) > 200_000 {
		t.Fatalf("got %d bytes", len(out))
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "webp" {
		t.Fatalf("format = %q", format)
	}
}

func TestShrinkRejectsGarbage(t *testing.T) {
	if _, err := New(Options{}).Shrink([]byte("nope")); err == nil {
		t.Fatalf("expected decode error")
	}
}
