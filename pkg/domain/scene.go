package domain

// ShapeType はシーンを構成するプリミティブ形状の種別です。
type ShapeType string

const (
	ShapeBox          ShapeType = "BOX"
	ShapeSphere       ShapeType = "SPHERE"
	ShapeCylinder     ShapeType = "CYLINDER"
	ShapeCone         ShapeType = "CONE"
	ShapeTorus        ShapeType = "TORUS"
	ShapeDodecahedron ShapeType = "DODECAHEDRON"
	ShapeIcosahedron  ShapeType = "ICOSAHEDRON"
)

// ShapeTypes はモデルに許可する形状種別の一覧です。
// スキーマの enum 定義と突き合わせるため順序を固定しています。
func ShapeTypes() []ShapeType {
	return []ShapeType{
		ShapeBox,
		ShapeSphere,
		ShapeCylinder,
		ShapeCone,
		ShapeTorus,
		ShapeDodecahedron,
		ShapeIcosahedron,
	}
}

// マテリアル属性が省略された場合の既定値です。
const (
	DefaultMetalness = 0.1
	DefaultRoughness = 0.8
	DefaultOpacity   = 1.0
)

// SceneDescription はAIモデルから出力されるシーン全体の構成です。
// JSONフィールド名はレンダラー側との契約のため変更不可です。
type SceneDescription struct {
	BackgroundColor       string           `json:"backgroundColor"`
	AmbientLightColor     string           `json:"ambientLightColor"`
	AmbientLightIntensity float64          `json:"ambientLightIntensity"`
	Shapes                []PrimitiveShape `json:"shapes"`
}

// PrimitiveShape はシーン内の1つのプリミティブ形状を保持します。
// Metalness / Roughness / Opacity はポインタにすることで
// 「省略」と「明示的なゼロ」を区別します。
type PrimitiveShape struct {
	ID        string     `json:"id"`
	Type      ShapeType  `json:"type"`
	Position  [3]float64 `json:"position"`
	Rotation  [3]float64 `json:"rotation"`
	Scale     [3]float64 `json:"scale"`
	Color     string     `json:"color"`
	Metalness *float64   `json:"metalness,omitempty"`
	Roughness *float64   `json:"roughness,omitempty"`
	Opacity   *float64   `json:"opacity,omitempty"`
}

// Normalize は省略されたマテリアル属性に既定値を補完します。
// モデルが明示的に 0 を返した場合はそのまま保持します。
func (s *SceneDescription) Normalize() {
	for i := range s.Shapes {
		sh := &s.Shapes[i]
		if sh.Metalness == nil {
			sh.Metalness = ptrFloat(DefaultMetalness)
		}
		if sh.Roughness == nil {
			sh.Roughness = ptrFloat(DefaultRoughness)
		}
		if sh.Opacity == nil {
			sh.Opacity = ptrFloat(DefaultOpacity)
		}
	}
}

// Clone はシーンの深いコピーを返します。
// マテリアル属性のポインタも複製し、元のシーンと共有しません。
func (s *SceneDescription) Clone() *SceneDescription {
	if s == nil {
		return nil
	}
	out := &SceneDescription{
		BackgroundColor:       s.BackgroundColor,
		AmbientLightColor:     s.AmbientLightColor,
		AmbientLightIntensity: s.AmbientLightIntensity,
	}
	if s.Shapes != nil {
		out.Shapes = make([]PrimitiveShape, len(s.Shapes))
		for i, sh := range s.Shapes {
			cp := sh
			cp.Metalness = copyFloat(sh.Metalness)
			cp.Roughness = copyFloat(sh.Roughness)
			cp.Opacity = copyFloat(sh.Opacity)
			out.Shapes[i] = cp
		}
	}
	return out
}

func ptrFloat(v float64) *float64 {
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
