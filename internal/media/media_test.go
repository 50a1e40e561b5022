package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"handyhub/pkg/apperror"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestValidateDocument(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	img := pngBytes(t, 4, 4)

	if mime, err := ValidateDocument(pdf, "id.pdf", 1<<20); err != nil || mime != "application/pdf" {
		t.Fatalf("pdf: %s %v", mime, err)
	}
	if mime, err := ValidateDocument(img, "ID.PNG", 1<<20); err != nil || mime != "image/png" {
		t.Fatalf("png: %s %v", mime, err)
	}

	cases := map[string]struct {
		data []byte
		name string
		max  int64
	}{
		"empty":           {nil, "id.pdf", 1 << 20},
		"too large":       {pdf, "id.pdf", 4},
		"wrong type":      {[]byte("just some text"), "id.txt", 1 << 20},
		"wrong extension": {img, "id.pdf", 1 << 20},
	}
	for name, tc := range cases {
		_, err := ValidateDocument(tc.data, tc.name, tc.max)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestNormalizeImageShrinksWideImages(t *testing.T) {
	out, err := NormalizeImage(pngBytes(t, 1024, 256), 512)
	if err != nil {
		t.Fatal(err)
	}
	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 128 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}

	if _, err := NormalizeImage([]byte("not an image"), 512); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("My Passport (scan)"); got != "my-passport-scan" {
		t.Fatalf("unexpected %q", got)
	}
	if got := sanitize("***"); got != "file" {
		t.Fatalf("unexpected %q", got)
	}
}
