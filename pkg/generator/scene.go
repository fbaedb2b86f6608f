package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
	"github.com/shouni/gemini-scene-kit/pkg/prompts"

	"google.golang.org/genai"
)

// GeminiSceneModel は、レスポンススキーマで出力形式を固定した
// 構造化シーン生成を実行します。応答テキストの修復と検証は呼び出し側が担います。
type GeminiSceneModel struct {
	caller SceneCaller
	model  string
}

// NewGeminiSceneModel は GeminiSceneModel を初期化します。
// caller には *genai.Client の Models フィールドをそのまま渡せます。
func NewGeminiSceneModel(caller SceneCaller, model string) (*GeminiSceneModel, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller (SceneCaller) is required")
	}
	if model == "" {
		model = DefaultTextModel
	}
	return &GeminiSceneModel{caller: caller, model: model}, nil
}

// DescribeScene はシーン構造の生成リクエストを1回だけ発行し、
// モデルの応答テキストをそのまま返します。ステージ単位のリトライは行いません。
func (m *GeminiSceneModel) DescribeScene(ctx context.Context, req domain.SceneRequest) (string, error) {
	slog.InfoContext(ctx, "構造化シーン生成リクエストを準備中",
		"model", m.model, "ref_count", len(req.References))

	parts := []*genai.Part{{Text: prompts.Modeling(req.Subject, req.Analysis)}}
	for _, img := range req.References {
		parts = append(parts, referencePart(img))
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		ResponseSchema:    sceneSchema(),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: prompts.ModelingSystem}}},
	}

	resp, err := m.caller.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("シーン構造の生成リクエストに失敗しました: %w", err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return "", fmt.Errorf("シーン構造の応答解析に失敗しました: %w", err)
	}
	return text, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	var b strings.Builder
	candidate := resp.Candidates[0]
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

// sceneSchema はレンダラー契約に対応するレスポンススキーマを構築します。
// フィールド名と形状種別は pkg/domain の定義と一致させます。
func sceneSchema() *genai.Schema {
	shapeTypes := domain.ShapeTypes()
	typeEnum := make([]string, 0, len(shapeTypes))
	for _, st := range shapeTypes {
		typeEnum = append(typeEnum, string(st))
	}

	vec3 := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: desc,
			Items:       &genai.Schema{Type: genai.TypeNumber},
			MinItems:    genai.Ptr[int64](3),
			MaxItems:    genai.Ptr[int64](3),
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"backgroundColor": {
				Type:        genai.TypeString,
				Description: "Scene background as a hex color, e.g. #1a1a2e",
			},
			"ambientLightColor": {
				Type:        genai.TypeString,
				Description: "Ambient light as a hex color",
			},
			"ambientLightIntensity": {
				Type:        genai.TypeNumber,
				Description: "Ambient light strength, typically 0.2 to 1.0",
			},
			"shapes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":        {Type: genai.TypeString},
						"type":      {Type: genai.TypeString, Enum: typeEnum},
						"position":  vec3("Center position [x, y, z]"),
						"rotation":  vec3("Euler rotation in radians [x, y, z]"),
						"scale":     vec3("Scale factors [x, y, z]"),
						"color":     {Type: genai.TypeString, Description: "Hex color"},
						"metalness": {Type: genai.TypeNumber},
						"roughness": {Type: genai.TypeNumber},
						"opacity":   {Type: genai.TypeNumber},
					},
					Required: []string{"id", "type", "position", "rotation", "scale", "color"},
				},
			},
		},
		Required: []string{"backgroundColor", "ambientLightColor", "ambientLightIntensity", "shapes"},
	}
}
