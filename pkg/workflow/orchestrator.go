package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
)

// Analyst は視覚分析ステージの窓口です。
type Analyst interface {
	Analyze(ctx context.Context, subject string, refs *domain.ReferenceImageSet) (string, error)
}

// SceneModel は構造化シーン生成の窓口です。応答テキストは未修復のまま返します。
type SceneModel interface {
	DescribeScene(ctx context.Context, req domain.SceneRequest) (string, error)
}

// ErrMissingReferences は参照画像セットが不完全なままワークフローを
// 開始しようとしたことを示す前提条件エラーです。
var ErrMissingReferences = errors.New("参照画像セットが揃っていません")

// SceneError は構造化シーン生成の応答が利用不能だったことを示します。
// モデルの生の応答テキストを診断用に保持します。
type SceneError struct {
	Raw string
	Err error
}

func (e *SceneError) Error() string {
	return fmt.Sprintf("シーン構造の生成に失敗しました: %v", e.Err)
}

func (e *SceneError) Unwrap() error {
	return e.Err
}

const (
	// DefaultTexturePacing はテクスチャリングステージの2イベント間に置く演出上の間隔です。
	DefaultTexturePacing = 750 * time.Millisecond
	// DefaultRenderAmbientIntensity は最終ステージで上書きする環境光の強度です。
	// プレビューより明るい最終照明でシーンを引き渡します。
	DefaultRenderAmbientIntensity = 1.2
)

// Config はオーケストレーターの挙動を調整します。ゼロ値は既定値に補正されます。
type Config struct {
	TexturePacing          time.Duration // 負値で間隔なし
	RenderAmbientIntensity float64
}

func (c Config) withDefaults() Config {
	if c.TexturePacing == 0 {
		c.TexturePacing = DefaultTexturePacing
	}
	if c.TexturePacing < 0 {
		c.TexturePacing = 0
	}
	if c.RenderAmbientIntensity <= 0 {
		c.RenderAmbientIntensity = DefaultRenderAmbientIntensity
	}
	return c
}

// Orchestrator は分析、モデリング、テクスチャリング、レンダリングの
// 4ステージを厳密な順序で実行し、進捗をチャネルで配信します。
type Orchestrator struct {
	analyst Analyst
	scene   SceneModel
	cfg     Config
}

// NewOrchestrator は依存関係を注入して Orchestrator を初期化します。
func NewOrchestrator(analyst Analyst, scene SceneModel, cfg Config) (*Orchestrator, error) {
	if analyst == nil {
		return nil, fmt.Errorf("analyst is required")
	}
	if scene == nil {
		return nil, fmt.Errorf("scene (SceneModel) is required")
	}

	return &Orchestrator{
		analyst: analyst,
		scene:   scene,
		cfg:     cfg.withDefaults(),
	}, nil
}

// Stream はワークフローを開始し、進捗イベントのチャネルを返します。
// 参照画像セットが不完全な場合は何も起動せず ErrMissingReferences を返します。
// チャネルはバッファなしで、消費者の受信ペースが実行を律速します。
// 成功時は各ステージ2イベントずつ計8イベント、失敗時は Err を載せた
// 終端イベントを流し、いずれの場合も最後にチャネルを閉じます。
func (o *Orchestrator) Stream(ctx context.Context, subject string, refs *domain.ReferenceImageSet) (<-chan domain.ProgressEvent, error) {
	if !refs.Complete() {
		return nil, ErrMissingReferences
	}

	ch := make(chan domain.ProgressEvent)
	go o.run(ctx, subject, refs, ch)
	return ch, nil
}

// Generate は Stream を末尾まで消費し、完成したシーンだけを返します。
// 進捗表示が不要な呼び出し側のための一括実行版です。
func (o *Orchestrator) Generate(ctx context.Context, subject string, refs *domain.ReferenceImageSet) (*domain.SceneDescription, error) {
	ch, err := o.Stream(ctx, subject, refs)
	if err != nil {
		return nil, err
	}

	var last *domain.SceneDescription
	for ev := range ch {
		if ev.Err != nil {
			return nil, ev.Err
		}
		if ev.Scene != nil {
			last = ev.Scene
		}
	}

	if last == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ワークフローが完了しませんでした")
	}
	return last, nil
}
