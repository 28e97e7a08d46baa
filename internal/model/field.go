package model

// Field 受管控的规划属性
type Field string

// 标准字段
const (
	FieldHeightMax     Field = "h_max_m"         // 最大高度（米）
	FieldLevelsMax     Field = "niveaux_max"     // 最大层数
	FieldLandUseIndex  Field = "iu_max"          // 使用指数（indice d'utilisation）
	FieldGrossFloor    Field = "ibus_max"        // 总建筑面积指数（IBUS）
	FieldFootprint     Field = "ios_max"         // 占地指数（indice d'occupation du sol）
	FieldSetbackMin    Field = "setback_min_m"   // 距边界最小距离（米）
	FieldGreenRatioMin Field = "green_ratio_min" // 最小绿地率
	FieldParkingRatio  Field = "parking_ratio"   // 每户车位数
	FieldRoofType      Field = "roof_type"       // 屋顶类型
	FieldStoryHeight   Field = "story_height_m"  // 假定层高（米）
	FieldAffectation   Field = "affectation"     // 用地性质
	FieldNoiseDegree   Field = "ds_opb"          // 噪声敏感度等级（OPB）
)

// String 实现 Stringer
func (f Field) String() string {
	return string(f)
}
