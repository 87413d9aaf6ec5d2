package image

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func gradient(t *testing.T, w, h int, f Format) *ImageBuf {
	t.Helper()
	buf, err := NewImageBuf(w, h, f)
	if err != nil {
		t.Fatalf("NewImageBuf() error = %v", err)
	}
	for i := range buf.Data() {
		buf.Data()[i] = byte(i * 7)
	}
	return buf
}

func TestToStdImage_Gray8(t *testing.T) {
	buf := gradient(t, 5, 4, FormatGray8)

	img, ok := buf.ToStdImage().(*image.Gray)
	if !ok {
		t.Fatalf("ToStdImage() = %T, want *image.Gray", buf.ToStdImage())
	}
	if !bytes.Equal(img.Pix, buf.Data()) {
		t.Error("Gray pixels differ from buffer")
	}
}

func TestToStdImage_RGB8(t *testing.T) {
	buf, _ := NewImageBuf(3, 2, FormatRGB8)
	copy(buf.RowBytes(1)[2*3:], []byte{10, 20, 30})

	img, ok := buf.ToStdImage().(*image.NRGBA)
	if !ok {
		t.Fatalf("ToStdImage() = %T, want *image.NRGBA", buf.ToStdImage())
	}
	got := img.NRGBAAt(2, 1)
	want := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	if got != want {
		t.Errorf("NRGBAAt(2, 1) = %v, want %v", got, want)
	}
	if a := img.NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	decoders := map[Codec]func(*bytes.Reader) (image.Image, error){
		CodecPNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		CodecBMP:  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		CodecTIFF: func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}

	for _, format := range []Format{FormatGray8, FormatRGB8} {
		for codec, decode := range decoders {
			t.Run(format.String()+"/"+codec.String(), func(t *testing.T) {
				buf := gradient(t, 9, 6, format)

				data, err := buf.EncodeToBytes(codec)
				if err != nil {
					t.Fatalf("EncodeToBytes(%v) error = %v", codec, err)
				}

				img, err := decode(bytes.NewReader(data))
				if err != nil {
					t.Fatalf("decode %v: %v", codec, err)
				}
				if img.Bounds().Dx() != 9 || img.Bounds().Dy() != 6 {
					t.Fatalf("decoded bounds = %v, want 9x6", img.Bounds())
				}

				// Compare one pixel through the generic color model.
				wr, wg, wb, _ := buf.ToStdImage().At(4, 3).RGBA()
				gr, gg, gb, _ := img.At(4, 3).RGBA()
				if wr>>8 != gr>>8 || wg>>8 != gg>>8 || wb>>8 != gb>>8 {
					t.Errorf("pixel (4,3) = %d,%d,%d, want %d,%d,%d", gr>>8, gg>>8, gb>>8, wr>>8, wg>>8, wb>>8)
				}
			})
		}
	}
}

func TestEncode_UnsupportedCodec(t *testing.T) {
	buf := gradient(t, 2, 2, FormatGray8)
	if err := buf.Encode(&bytes.Buffer{}, Codec(99)); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("Encode(99) error = %v, want ErrUnsupportedCodec", err)
	}
}

func TestCodecFromName(t *testing.T) {
	tests := []struct {
		in      string
		want    Codec
		wantErr bool
	}{
		{"png", CodecPNG, false},
		{"PNG", CodecPNG, false},
		{".bmp", CodecBMP, false},
		{"tif", CodecTIFF, false},
		{"tiff", CodecTIFF, false},
		{"jpeg", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CodecFromName(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CodecFromName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("CodecFromName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCodecFromPath(t *testing.T) {
	if c, err := CodecFromPath("out/mandelbrot.TIF"); err != nil || c != CodecTIFF {
		t.Errorf("CodecFromPath(.TIF) = %v, %v; want tiff", c, err)
	}
	if _, err := CodecFromPath("mandelbrot"); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("CodecFromPath(no ext) error = %v, want ErrUnsupportedCodec", err)
	}
}

func TestCodec_Metadata(t *testing.T) {
	for _, c := range []Codec{CodecPNG, CodecBMP, CodecTIFF} {
		if c.ContentType() == "application/octet-stream" {
			t.Errorf("%v.ContentType() not set", c)
		}
		back, err := CodecFromName(c.Extension())
		if err != nil || back != c {
			t.Errorf("CodecFromName(%v.Extension()) = %v, %v", c, back, err)
		}
	}
}

func TestSaveFile(t *testing.T) {
	buf := gradient(t, 8, 8, FormatGray8)
	path := filepath.Join(t.TempDir(), "out.png")

	if err := buf.SaveFile(path, CodecPNG); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open saved file: %v", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("png.DecodeConfig() error = %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("saved size = %dx%d, want 8x8", cfg.Width, cfg.Height)
	}
}

func TestSaveFile_BadPath(t *testing.T) {
	buf := gradient(t, 2, 2, FormatGray8)
	path := filepath.Join(t.TempDir(), "missing", "out.png")
	if err := buf.SaveFile(path, CodecPNG); err == nil {
		t.Error("SaveFile() into missing directory succeeded, want error")
	}
}
