package generator

import (
	"context"
	"time"

	"github.com/shouni/gemini-scene-kit/pkg/domain"

	"google.golang.org/genai"
)

// AssetManager は File API や GCS とのやり取りを担当します。
type AssetManager interface {
	UploadFile(ctx context.Context, fileURI string) (string, error)
	DeleteFile(ctx context.Context, fileURI string) error
}

// ViewSource は単一視点の画像生成窓口です。
// 参照画像セットの組み立て側はこのインターフェースにのみ依存します。
type ViewSource interface {
	GenerateView(ctx context.Context, req domain.ViewRequest) (*domain.ViewImage, error)
}

// SceneCaller は、構造化出力（レスポンススキーマ指定）に必要な
// genai SDK の呼び出し面です。*genai.Client の Models フィールドが満たします。
type SceneCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageCacher は、画像参照をキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
