// Package prompts は、シーン生成ワークフローで使用する指示文を組み立てます。
// モデルへ渡す文面はすべてここに集約し、呼び出し側での文字列組み立てを禁止します。
package prompts

import (
	"fmt"

	"github.com/shouni/gemini-scene-kit/pkg/domain"
)

// FrontView は正面参照画像（無条件生成）のプロンプトを組み立てます。
// 複数ビューの合成シートを返されると後段の条件付けが壊れるため、
// 単一視点であることを強く指定します。
func FrontView(subject string) string {
	return fmt.Sprintf(`Generate a single image of the following subject: %s.

Requirements:
- Show exactly ONE view of the subject, seen directly from the FRONT.
- Center the subject on a plain, neutral, uncluttered background.
- Do NOT create a character sheet, turnaround, collage, or multi-panel composite.
- Keep the entire subject inside the frame with consistent studio lighting.`, subject)
}

// ConditionedView は正面画像を参照した追加視点のプロンプトを組み立てます。
// 参照画像とカメラ距離・ズーム・配色・形状を一致させることが要件です。
func ConditionedView(subject string, view domain.View) string {
	return fmt.Sprintf(`Using the attached reference image as the EXACT same subject (%s), generate the %s.

Requirements:
- Render the identical object: same proportions, same colors, same materials, same details.
- Keep the SAME camera distance, zoom level, and framing as the reference image.
- Only the viewpoint changes; nothing else about the subject or presentation may change.
- Plain, neutral background matching the reference. Exactly ONE view, no composites.`, subject, viewPhrase(view))
}

// viewPhrase は視点種別をプロンプト上の言い回しへ変換します。
func viewPhrase(view domain.View) string {
	switch view {
	case domain.ViewFront:
		return "view seen directly from the front"
	case domain.ViewBack:
		return "view seen directly from the back"
	case domain.ViewLeft:
		return "view seen directly from the left side"
	case domain.ViewRight:
		return "view seen directly from the right side"
	default:
		return fmt.Sprintf("view seen from the %s", string(view))
	}
}

// AnalysisInstruction は参照画像から立体構造を言語化させる指示文です。
// 出力は次段のモデリング指示にそのまま埋め込みます。
const AnalysisInstruction = `You are a 3D reconstruction analyst. Study the attached reference images of a single subject captured from multiple viewpoints.

Describe, in plain prose:
1. The overall silhouette and proportions of the subject.
2. The major volumes it decomposes into (head, body, base, arms, hat, etc.) and their relative sizes.
3. The dominant colors of each volume as hex color values.
4. Any symmetry, repetition, or distinctive structural features visible across the views.
5. A recommended polygon count for a faithful low-poly reconstruction.
6. A recommended topology: how the volumes connect, and which primitive solids suit each part.

Be concrete and geometric. Do not describe mood, style, or artistic qualities.`

// Analysis は視覚分析のプロンプトを組み立てます。
func Analysis(subject string) string {
	return fmt.Sprintf("%s\n\nSubject: %s", AnalysisInstruction, subject)
}

// FallbackAnalysis は視覚分析が失敗した場合に代用する汎用の分析文です。
// ワークフローはこの文面で処理を継続し、失敗を外へは出しません。
const FallbackAnalysis = `The subject is a single coherent object standing on the ground plane. Decompose it into a sensible arrangement of basic volumes: a dominant central mass, a supporting base, and smaller attached details. Choose harmonious colors appropriate to the subject and keep proportions plausible.`

// ModelingSystem は構造化シーン生成のシステム指示です。
// プリミティブの組み合わせ（CSG的な構成）でシーンを表現させます。
const ModelingSystem = `You are a 3D scene modeler. You build scenes exclusively from primitive shapes (BOX, SPHERE, CYLINDER, CONE, TORUS, DODECAHEDRON, ICOSAHEDRON), composing complex objects out of MANY SMALL primitives rather than a few large ones.

Modeling conventions:
- The scene fits inside a 10 x 10 x 10 volume centered at the origin; the ground plane is y = 0.
- Positive Y is up. Place objects so they rest on or above the ground plane.
- Build recognizable structure: stack, offset, and rotate primitives so their composition reads as the subject. Aim for 15 to 60 primitives for a typical subject.
- Keep parts connected: every primitive must touch or overlap a neighboring primitive. No floating pieces.
- Preserve the subject's symmetry: if the subject is bilaterally symmetric, mirror primitives across the x = 0 plane.
- Every primitive gets a short unique id and a hex color sampled from the subject.
- position / rotation / scale are arrays of exactly three numbers. Rotation is in radians.
- Choose a backgroundColor and ambient light that complement the subject.

Respond with the scene as JSON only. No explanation, no markdown.`

// Modeling は構造化シーン生成のユーザープロンプトを組み立てます。
// 分析テキストを形状根拠として埋め込みます。
func Modeling(subject, analysis string) string {
	return fmt.Sprintf(`Build a 3D primitive scene of: %s

Structural analysis of the subject (from reference imagery):
%s

Follow the analysis for proportions, decomposition, and colors. The attached images are the authoritative reference for the subject's appearance.`, subject, analysis)
}
