package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/gemini-scene-kit/pkg/imgutil"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

// GeminiAssetCore は画風参照アセットの取得・圧縮・File API 管理を担う基盤です。
// https の参照は SSRF 検証付きで取得し、gs:// は remote-io 経由で読み込みます。
type GeminiAssetCore struct {
	aiClient   gemini.GenerativeModel
	reader     remoteio.InputReader
	httpClient httpkit.ClientInterface
	cache      ImageCacher
	expiration time.Duration
}

// NewGeminiAssetCore は依存関係を注入して GeminiAssetCore を初期化します。
func NewGeminiAssetCore(aiClient gemini.GenerativeModel, reader remoteio.InputReader, httpClient httpkit.ClientInterface, cache ImageCacher, cacheTTL time.Duration) (*GeminiAssetCore, error) {
	// どの依存関係が不足しているか具体的に示す
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	// cache は nil を許容（キャッシュなし動作）

	return &GeminiAssetCore{
		aiClient:   aiClient,
		reader:     reader,
		httpClient: httpClient,
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// UploadFile は参照アセットを Gemini File API にアップロードし、URI を返します。
func (c *GeminiAssetCore) UploadFile(ctx context.Context, fileURI string) (string, error) {
	cacheKeyURI := cacheKeyFileAPIURI + fileURI
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKeyURI); ok {
			if uri, ok := val.(string); ok {
				return uri, nil
			}
		}
	}

	data, err := c.fetchImageData(ctx, fileURI)
	if err != nil {
		return "", err
	}

	payload := imgutil.PrepareInline(data, "", compressionQuality())
	displayName := filepath.Base(fileURI)

	// File API へのアップロード
	uri, fileName, err := c.aiClient.UploadFile(ctx, payload.Data, payload.MimeType, displayName)
	if err != nil {
		return "", err
	}

	// URI（参照用）と Name（削除用）の両方をキャッシュ
	if c.cache != nil {
		c.cache.Set(cacheKeyURI, uri, c.expiration)
		c.cache.Set(cacheKeyFileAPIName+fileURI, fileName, c.expiration)
	}

	return uri, nil
}

// DeleteFile はキャッシュされたファイル名を使用して Gemini File API からファイルを削除します。
func (c *GeminiAssetCore) DeleteFile(ctx context.Context, fileURI string) error {
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKeyFileAPIName + fileURI); ok {
			if name, ok := val.(string); ok {
				// 正しいファイル名 (files/xxxx) で削除を実行
				return c.aiClient.DeleteFile(ctx, name)
			}
		}
	}

	// キャッシュミスした場合、URL 形式の fileURI では Delete API を叩けないためエラーを返す
	return fmt.Errorf("cannot determine file name for deletion, file not found in cache: %s", fileURI)
}

// PrepareImagePart は参照URLから条件付け用の genai.Part を作成します。
// 取得に失敗した場合は警告を残して nil を返し、生成自体は続行させます。
func (c *GeminiAssetCore) PrepareImagePart(ctx context.Context, rawURL string) *genai.Part {
	// File API キャッシュチェック
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKeyFileAPIURI + rawURL); ok {
			if uri, ok := val.(string); ok {
				return &genai.Part{FileData: &genai.FileData{FileURI: uri}}
			}
		}
	}

	data, err := c.fetchImageData(ctx, rawURL)
	if err != nil {
		slog.WarnContext(ctx, "参照画像の取得に失敗しました。この参照は無視して続行します", "url", rawURL, "error", err)
		return nil
	}

	return c.toPart(imgutil.PrepareInline(data, "", compressionQuality()))
}

// fetchImageData は参照アセットのバイト列を取得します。バイト列キャッシュが
// あればそれを返し、なければ gs:// / https から取得してキャッシュします。
func (c *GeminiAssetCore) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKeyRefBytes + rawURL); ok {
			if data, ok := val.([]byte); ok {
				return data, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", val))
		}
	}

	data, err := c.readSource(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKeyRefBytes+rawURL, data, c.expiration)
	}
	return data, nil
}

func (c *GeminiAssetCore) readSource(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		rc, err := c.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return c.httpClient.FetchBytes(ctx, rawURL)
}

func (c *GeminiAssetCore) toPart(payload imgutil.InlinePayload) *genai.Part {
	if !payload.IsImage() {
		slog.Warn("MIMEタイプが画像ではないためPartに変換できませんでした", "detected_mime_type", payload.MimeType)
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: payload.MimeType, Data: payload.Data}}
}
