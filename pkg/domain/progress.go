package domain

// Stage はシーン生成ワークフローの進行段階です。
type Stage int

const (
	StageAnalysis  Stage = 1
	StageModeling  Stage = 2
	StageTexturing Stage = 3
	StageRendering Stage = 4

	// TotalStages はワークフロー全体の段階数です。
	TotalStages = 4
)

// String は進捗ログやイベントのシリアライズに使う識別子を返します。
func (s Stage) String() string {
	switch s {
	case StageAnalysis:
		return "analysis"
	case StageModeling:
		return "modeling"
	case StageTexturing:
		return "texturing"
	case StageRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// ProgressEvent はワークフローが発行する1回分の進捗通知です。
// 同一ステージから複数回発行されます。一度シーンを載せたイベントを
// 発行した後は、後続イベントも同じ形状リストを引き継ぎます
// （最終ステージは環境光の強度のみ上書きします）。
type ProgressEvent struct {
	Stage Stage             `json:"stage"`
	Logs  []string          `json:"logs"`
	Scene *SceneDescription `json:"scene,omitempty"`

	// Err は終端イベントにのみ設定されます。シリアライズする場合は
	// 利用側で文字列へ変換してください。
	Err error `json:"-"`
}
