package request

import "urbaplan/internal/model"

// ToJobData 将 Request DTO 转换为任务数据（同步计算与队列消息共用）
func (r *FeasibilityRequest) ToJobData() model.FeasibilityJobData {
	data := model.FeasibilityJobData{
		ZoneID:  r.ZoneID,
		Project: r.Project,
		Lang:    r.Lang,
	}
	if r.Parcel != nil {
		data.ParcelID = r.Parcel.ID
		data.AreaM2 = r.Parcel.AreaM2
		data.GeometryWKT = r.Parcel.Geometry
		data.ZoneType = r.Parcel.ZoneType
	}
	return data
}
