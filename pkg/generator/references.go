package generator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
)

// BuildRequest は参照画像セット一式の生成要求です。
type BuildRequest struct {
	Subject     string
	StyleURL    string // 画風指定の外部参照画像URL（任意）
	AspectRatio string
	Seed        *int64
}

// ReferenceSetBuilder は4視点の参照画像セットを組み立てます。
// 正面を先に無条件で生成し、残り3視点は正面画像を参照して並行生成します。
type ReferenceSetBuilder struct {
	source ViewSource
}

// NewReferenceSetBuilder は ReferenceSetBuilder を初期化します。
func NewReferenceSetBuilder(source ViewSource) (*ReferenceSetBuilder, error) {
	if source == nil {
		return nil, fmt.Errorf("source (ViewSource) is required")
	}
	return &ReferenceSetBuilder{source: source}, nil
}

// Build は参照画像セットを生成します。正面の生成が確定してから
// 残り3視点を起動するため、条件付け元が欠けた状態で走ることはありません。
// いずれかの視点が失敗した場合は残りを中断してエラーを返します。
func (b *ReferenceSetBuilder) Build(ctx context.Context, req BuildRequest) (*domain.ReferenceImageSet, error) {
	slog.InfoContext(ctx, "参照画像セットの生成を開始します", "subject", req.Subject)

	front, err := b.source.GenerateView(ctx, domain.ViewRequest{
		Subject:     req.Subject,
		View:        domain.ViewFront,
		StyleURL:    req.StyleURL,
		AspectRatio: req.AspectRatio,
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("正面参照画像の生成に失敗しました: %w", err)
	}

	set := &domain.ReferenceImageSet{Front: front}

	g, gctx := errgroup.WithContext(ctx)
	for _, view := range domain.ConditionedViews() {
		g.Go(func() error {
			img, err := b.source.GenerateView(gctx, domain.ViewRequest{
				Subject:     req.Subject,
				View:        view,
				Reference:   front,
				StyleURL:    req.StyleURL,
				AspectRatio: req.AspectRatio,
				Seed:        req.Seed,
			})
			if err != nil {
				return err
			}
			assignView(set, view, img)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("参照画像セットの生成に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "参照画像セットが揃いました", "subject", req.Subject)
	return set, nil
}

// assignView は視点ごとに別フィールドへ書き込むため、並行実行でも競合しない。
func assignView(set *domain.ReferenceImageSet, view domain.View, img *domain.ViewImage) {
	switch view {
	case domain.ViewBack:
		set.Back = img
	case domain.ViewLeft:
		set.Left = img
	case domain.ViewRight:
		set.Right = img
	}
}
