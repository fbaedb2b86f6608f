package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
	"github.com/shouni/gemini-scene-kit/pkg/jsonfix"
	"github.com/shouni/gemini-scene-kit/pkg/prompts"
)

// run はステージを順に実行します。チャネルのクローズはここが唯一の責務者です。
func (o *Orchestrator) run(ctx context.Context, subject string, refs *domain.ReferenceImageSet, ch chan<- domain.ProgressEvent) {
	defer close(ch)

	// ステージ1: 分析。失敗は汎用の分析文に差し替えて吸収し、外へは出しません。
	if !o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageAnalysis,
		Logs:  []string{"参照画像の分析を開始します", fmt.Sprintf("対象: %s", subject)},
	}) {
		return
	}

	analysis, err := o.analyst.Analyze(ctx, subject, refs)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.WarnContext(ctx, "視覚分析に失敗したため汎用の分析文で継続します", "error", err)
		analysis = prompts.FallbackAnalysis
	}

	if !o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageAnalysis,
		Logs:  []string{"立体構造の分析が完了しました", analysis},
	}) {
		return
	}

	// ステージ2: モデリング。リクエストは1回だけで、応答の修復失敗は終端エラーです。
	if !o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageModeling,
		Logs:  []string{"プリミティブ構成を生成しています"},
	}) {
		return
	}

	// 形状根拠として添付するのは正面と側面の2視点。全視点は送らない
	raw, err := o.scene.DescribeScene(ctx, domain.SceneRequest{
		Subject:    subject,
		Analysis:   analysis,
		References: []*domain.ViewImage{refs.Front, refs.Left},
	})
	if err != nil {
		o.fail(ctx, ch, domain.StageModeling, &SceneError{Err: err})
		return
	}

	var scene domain.SceneDescription
	if err := jsonfix.RepairInto(raw, &scene); err != nil {
		o.fail(ctx, ch, domain.StageModeling, &SceneError{Raw: raw, Err: err})
		return
	}
	scene.Normalize()

	if !o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageModeling,
		Logs:  []string{fmt.Sprintf("%d 個のプリミティブでシーンを構成しました", len(scene.Shapes))},
		Scene: &scene,
	}) {
		return
	}

	// ステージ3: テクスチャリング。演出のみでシーンには触れません。
	if !o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageTexturing,
		Logs:  []string{"マテリアルを調整しています"},
		Scene: &scene,
	}) {
		return
	}

	if !o.pause(ctx) {
		return
	}

	if !o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageTexturing,
		Logs:  []string{"テクスチャリングが完了しました"},
		Scene: &scene,
	}) {
		return
	}

	// ステージ4: レンダリング。環境光の強度だけを上書きした複製を最終成果物にします。
	if !o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageRendering,
		Logs:  []string{"最終レンダリングを準備しています"},
		Scene: &scene,
	}) {
		return
	}

	final := scene.Clone()
	final.AmbientLightIntensity = o.cfg.RenderAmbientIntensity

	o.emit(ctx, ch, domain.ProgressEvent{
		Stage: domain.StageRendering,
		Logs:  []string{"シーンが完成しました"},
		Scene: final,
	})
}

// emit はイベントを1件配信します。消費者が受け取るか、コンテキストが
// 取り消されるまでブロックします。配信できなかった場合は false を返します。
func (o *Orchestrator) emit(ctx context.Context, ch chan<- domain.ProgressEvent, ev domain.ProgressEvent) bool {
	slog.InfoContext(ctx, "進捗イベントを配信します",
		"stage", ev.Stage.String(), "has_scene", ev.Scene != nil, "has_error", ev.Err != nil)

	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		slog.WarnContext(ctx, "進捗イベントの配信を中断しました", "stage", ev.Stage.String())
		return false
	}
}

// fail は終端エラーイベントを配信します。部分的に配信済みの進捗は巻き戻しません。
func (o *Orchestrator) fail(ctx context.Context, ch chan<- domain.ProgressEvent, stage domain.Stage, err error) {
	slog.ErrorContext(ctx, "ワークフローを中断します", "stage", stage.String(), "error", err)

	o.emit(ctx, ch, domain.ProgressEvent{
		Stage: stage,
		Logs:  []string{"シーン構造の生成に失敗しました"},
		Err:   err,
	})
}

func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.cfg.TexturePacing <= 0 {
		return true
	}

	t := time.NewTimer(o.cfg.TexturePacing)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
