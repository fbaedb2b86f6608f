package generator

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultViewModel は視点画像の生成に使う既定モデルです。
	DefaultViewModel = "gemini-2.5-flash-image"
	// DefaultTextModel は視覚分析と構造化シーン生成に使う既定モデルです。
	DefaultTextModel = "gemini-2.5-flash"

	UseImageCompression     = true
	ImageCompressionQuality = 75

	cacheKeyFileAPIURI  = "fileapi_uri:"
	cacheKeyFileAPIName = "fileapi_name:"
	cacheKeyRefBytes    = "ref_bytes:"

	// DefaultCacheTTL は NewDefaultCache が使う既定の保持期間です。
	DefaultCacheTTL = 30 * time.Minute
)

// NewDefaultCache は go-cache ベースのインメモリキャッシュを返します。
// 呼び出し側が独自のキャッシュ実装を持たない場合の既定値です。
func NewDefaultCache(ttl time.Duration) ImageCacher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return gocache.New(ttl, 2*ttl)
}

// compressionQuality は再圧縮の品質を返します。圧縮無効時は 0 です。
func compressionQuality() int {
	if UseImageCompression {
		return ImageCompressionQuality
	}
	return 0
}
