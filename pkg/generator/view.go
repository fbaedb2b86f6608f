package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
	"github.com/shouni/gemini-scene-kit/pkg/imgutil"
	"github.com/shouni/gemini-scene-kit/pkg/prompts"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

const (
	// DefaultMaxAttempts は1視点あたりの生成試行回数です。
	DefaultMaxAttempts = 3
	// DefaultInitialBackoff は初回リトライまでの待機時間です。以降は倍増します。
	DefaultInitialBackoff = 1 * time.Second
	// DefaultAttemptTimeout は1試行あたりのタイムアウトです。
	DefaultAttemptTimeout = 90 * time.Second
)

// RetryConfig は視点画像生成のリトライ挙動を設定します。
// ゼロ値はすべて既定値に補正されます。
type RetryConfig struct {
	MaxAttempts    int           // 総試行回数（初回を含む）
	InitialBackoff time.Duration // 初回リトライまでの待機。試行ごとに倍増
	AttemptTimeout time.Duration // 1試行のタイムアウト。負値で無効
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	return c
}

// ExhaustedError は全試行が失敗したことを示します。
// どの視点で力尽きたかと最後の失敗原因を保持します。
type ExhaustedError struct {
	View     domain.View
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("視点 %s の画像生成が %d 回の試行すべてで失敗しました: %v", e.View, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// ViewGenerator は単一視点の参照画像をリトライ付きで生成します。
type ViewGenerator struct {
	aiClient gemini.GenerativeModel
	assets   *GeminiAssetCore // 任意。StyleURL の解決に使用
	model    string
	retry    RetryConfig
}

// NewViewGenerator は ViewGenerator を初期化するのだ。
// assets は nil を許容する（画風参照を使わない構成）のだ。
func NewViewGenerator(aiClient gemini.GenerativeModel, assets *GeminiAssetCore, model string, retry RetryConfig) (*ViewGenerator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		model = DefaultViewModel
	}

	return &ViewGenerator{
		aiClient: aiClient,
		assets:   assets,
		model:    model,
		retry:    retry.withDefaults(),
	}, nil
}

// GenerateView は1視点分の画像を生成します。画像パーツを含まない応答
// （テキストのみ、安全フィルター等）もリトライ対象の失敗として扱い、
// 試行が尽きた場合は *ExhaustedError を返します。
func (g *ViewGenerator) GenerateView(ctx context.Context, req domain.ViewRequest) (*domain.ViewImage, error) {
	parts := g.buildViewParts(ctx, req)
	opts := gemini.GenerateOptions{
		AspectRatio: req.AspectRatio,
		Seed:        req.Seed,
	}

	var out *domain.ViewImage
	op := func() error {
		attemptCtx := ctx
		if g.retry.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, g.retry.AttemptTimeout)
			defer cancel()
		}

		resp, err := g.aiClient.GenerateWithParts(attemptCtx, g.model, parts, opts)
		if err != nil {
			return err
		}

		img, err := parseToView(resp, dereferenceSeed(req.Seed))
		if err != nil {
			return err
		}
		out = img
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.retry.InitialBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "視点画像の生成に失敗しました。リトライします",
			"view", string(req.View), "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(
		op,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.retry.MaxAttempts-1)), ctx),
		notify,
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("視点 %s の生成が中断されました: %w", req.View, err)
		}
		return nil, &ExhaustedError{View: req.View, Attempts: g.retry.MaxAttempts, Err: err}
	}

	return out, nil
}

// buildViewParts はプロンプトと条件付け画像を組み立てます。
// 参照画像の有無で無条件生成と条件付き生成を切り替えます。
func (g *ViewGenerator) buildViewParts(ctx context.Context, req domain.ViewRequest) []*genai.Part {
	var prompt string
	if req.Reference != nil {
		prompt = prompts.ConditionedView(req.Subject, req.View)
	} else {
		prompt = prompts.FrontView(req.Subject)
	}

	parts := []*genai.Part{{Text: prompt}}

	if req.Reference != nil {
		parts = append(parts, referencePart(req.Reference))
	}

	if req.StyleURL != "" && g.assets != nil {
		if p := g.assets.PrepareImagePart(ctx, req.StyleURL); p != nil {
			parts = append(parts, p)
		}
	}

	return parts
}

// referencePart は生成済みの視点画像を条件付け用の Part に変換します。
// 転送量を抑えるためJPEGへ再圧縮し、圧縮できないデータは元のまま添付します。
func referencePart(img *domain.ViewImage) *genai.Part {
	payload := imgutil.PrepareInline(img.Data, img.MimeType, compressionQuality())
	return &genai.Part{InlineData: &genai.Blob{MIMEType: payload.MimeType, Data: payload.Data}}
}

// parseToView は応答から最初の画像パーツを取り出します。
// 画像が無い応答は失敗として扱います（リトライ可能）。
func parseToView(resp *gemini.Response, seed int64) (*domain.ViewImage, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.ViewImage{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
					UsedSeed: seed,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}

	return nil, fmt.Errorf("応答に画像データが含まれていませんでした")
}
