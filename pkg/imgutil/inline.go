package imgutil

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
)

// InlinePayload はモデルへインライン添付する画像データです。
type InlinePayload struct {
	Data     []byte
	MimeType string
}

// IsImage は MIME タイプが画像であるかを返します。
func (p InlinePayload) IsImage() bool {
	return strings.HasPrefix(p.MimeType, "image/")
}

// PrepareInline は画像データをインライン添付用に整形します。
// quality が正の場合はJPEGへの再圧縮を試みて転送量を抑え、
// デコードできないデータは元のまま通します。
// MIMEタイプが未指定の場合は内容から推定します。
func PrepareInline(data []byte, mimeType string, quality int) InlinePayload {
	if quality > 0 {
		if compressed, err := CompressToJPEG(data, quality); err == nil {
			return InlinePayload{Data: compressed, MimeType: "image/jpeg"}
		}
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return InlinePayload{Data: data, MimeType: mimeType}
}

// CompressToJPEG は画像データをJPEG形式へ再エンコードします。
// image.Decode が解釈できるフォーマット（PNG, GIF, JPEG等）を受け付けます。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
