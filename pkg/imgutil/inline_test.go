package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// テスト用のグラデーションPNG（64x64）を生成するヘルパー
func gradientPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8((x + y) * 2), A: 255})
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareInline(t *testing.T) {
	t.Run("PNGはJPEGへ再圧縮されること", func(t *testing.T) {
		got := PrepareInline(gradientPNG(t), "image/png", 75)

		if got.MimeType != "image/jpeg" {
			t.Errorf("expected image/jpeg, got %s", got.MimeType)
		}
		if _, format, err := image.Decode(bytes.NewReader(got.Data)); err != nil || format != "jpeg" {
			t.Errorf("payload should decode as jpeg: format=%s err=%v", format, err)
		}
	})

	t.Run("デコードできないデータは申告されたMIMEタイプのまま通すこと", func(t *testing.T) {
		raw := []byte("opaque-image-bytes")

		got := PrepareInline(raw, "image/png", 75)

		if !bytes.Equal(got.Data, raw) {
			t.Error("undecodable data must pass through unchanged")
		}
		if got.MimeType != "image/png" {
			t.Errorf("declared mime type should be kept, got %s", got.MimeType)
		}
	})

	t.Run("quality 0 では再圧縮しないこと", func(t *testing.T) {
		src := gradientPNG(t)

		got := PrepareInline(src, "image/png", 0)

		if !bytes.Equal(got.Data, src) {
			t.Error("compression must be skipped when quality is zero")
		}
		if got.MimeType != "image/png" {
			t.Errorf("expected image/png, got %s", got.MimeType)
		}
	})

	t.Run("MIMEタイプ未指定の場合は内容から推定すること", func(t *testing.T) {
		got := PrepareInline(gradientPNG(t), "", 0)

		if got.MimeType != "image/png" {
			t.Errorf("expected sniffed image/png, got %s", got.MimeType)
		}
	})
}

func TestInlinePayload_IsImage(t *testing.T) {
	cases := []struct {
		name     string
		mimeType string
		want     bool
	}{
		{"PNG", "image/png", true},
		{"JPEG", "image/jpeg", true},
		{"テキスト", "text/plain; charset=utf-8", false},
		{"空", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := InlinePayload{MimeType: tc.mimeType}
			if got := p.IsImage(); got != tc.want {
				t.Errorf("IsImage(%q) = %v, want %v", tc.mimeType, got, tc.want)
			}
		})
	}
}

func TestCompressToJPEG(t *testing.T) {
	t.Run("PNGをJPEGへ変換できること", func(t *testing.T) {
		got, err := CompressToJPEG(gradientPNG(t), 75)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) == 0 {
			t.Fatal("expected output data, but got empty")
		}

		if _, format, err := image.Decode(bytes.NewReader(got)); err != nil || format != "jpeg" {
			t.Errorf("output should decode as jpeg: format=%s err=%v", format, err)
		}
	})

	t.Run("画像でないデータにはエラーを返すこと", func(t *testing.T) {
		if _, err := CompressToJPEG([]byte("this is not an image"), 75); err == nil {
			t.Error("expected error for invalid data, but got nil")
		}
	})

	t.Run("Quality設定によってサイズが変化すること", func(t *testing.T) {
		input := gradientPNG(t)

		highQuality, err := CompressToJPEG(input, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lowQuality, err := CompressToJPEG(input, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(lowQuality) >= len(highQuality) {
			t.Errorf("low quality size (%d) should be smaller than high quality size (%d)", len(lowQuality), len(highQuality))
		}
	})
}
