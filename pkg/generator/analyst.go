package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
	"github.com/shouni/gemini-scene-kit/pkg/prompts"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GeminiAnalyst は参照画像セットから被写体の立体構造を言語化します。
type GeminiAnalyst struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewGeminiAnalyst は GeminiAnalyst を初期化します。
func NewGeminiAnalyst(aiClient gemini.GenerativeModel, model string) (*GeminiAnalyst, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		model = DefaultTextModel
	}
	return &GeminiAnalyst{aiClient: aiClient, model: model}, nil
}

// Analyze は参照画像を添えて視覚分析を実行し、分析テキストを返します。
func (a *GeminiAnalyst) Analyze(ctx context.Context, subject string, refs *domain.ReferenceImageSet) (string, error) {
	imgs := refs.Images()
	slog.InfoContext(ctx, "視覚分析リクエストを準備中", "model", a.model, "ref_count", len(imgs))

	parts := []*genai.Part{{Text: prompts.Analysis(subject)}}
	for _, img := range imgs {
		parts = append(parts, referencePart(img))
	}

	resp, err := a.aiClient.GenerateWithParts(ctx, a.model, parts, gemini.GenerateOptions{})
	if err != nil {
		return "", fmt.Errorf("視覚分析リクエストに失敗しました: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", fmt.Errorf("視覚分析の応答解析に失敗しました: %w", err)
	}
	return text, nil
}

// extractText は応答のテキストパーツを連結して返します。
func extractText(resp *gemini.Response) (string, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return "", fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	var b strings.Builder
	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("応答にテキストが含まれていませんでした")
	}
	return b.String(), nil
}
