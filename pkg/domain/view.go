package domain

// View は被写体を撮影する視点の種別です。
type View string

const (
	ViewFront View = "front"
	ViewBack  View = "back"
	ViewLeft  View = "left"
	ViewRight View = "right"
)

// ConditionedViews は正面画像を参照して生成する残り3視点です。
// 生成順序の契約（正面が先、残りは並行）を builder 側で保証します。
func ConditionedViews() []View {
	return []View{ViewBack, ViewLeft, ViewRight}
}

// ViewImage は生成された1視点分の画像データとそのメタデータです。
type ViewImage struct {
	Data     []byte
	MimeType string
	UsedSeed int64 // 生成に使われたシード。未指定なら 0
}

// ReferenceImageSet は4視点の参照画像一式です。
// Front は無条件生成、残り3視点は Front のみを参照して生成されます。
// 組み立て後は不変として扱い、次のリクエストでは丸ごと作り直します。
type ReferenceImageSet struct {
	Front *ViewImage
	Back  *ViewImage
	Left  *ViewImage
	Right *ViewImage
}

// Complete は4視点すべてが揃っているかを返します。
func (r *ReferenceImageSet) Complete() bool {
	if r == nil {
		return false
	}
	return r.Front != nil && r.Back != nil && r.Left != nil && r.Right != nil
}

// Images は保持している画像を front, back, left, right の順で返します。
// 欠けている視点はスキップします。
func (r *ReferenceImageSet) Images() []*ViewImage {
	if r == nil {
		return nil
	}
	var out []*ViewImage
	for _, img := range []*ViewImage{r.Front, r.Back, r.Left, r.Right} {
		if img != nil {
			out = append(out, img)
		}
	}
	return out
}

// ViewRequest は単一視点の画像生成要求です。
type ViewRequest struct {
	Subject     string
	View        View
	Reference   *ViewImage // 正面画像。nil なら無条件生成
	StyleURL    string     // 画風指定の外部参照画像URL（任意）
	AspectRatio string
	Seed        *int64 // nil でランダム、値指定で固定。Gemini SDK 互換
}

// SceneRequest は構造化シーン生成の要求です。
type SceneRequest struct {
	Subject    string
	Analysis   string       // 視覚分析ステージの出力テキスト
	References []*ViewImage // 形状根拠として添付する参照画像
}
