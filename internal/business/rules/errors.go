package rules

import "fmt"

// UnknownZoneError 分区编码未知
type UnknownZoneError struct {
	ZoneID string
}

func (e *UnknownZoneError) Error() string {
	return fmt.Sprintf("unknown zone %q", e.ZoneID)
}

// ErrorCode 映射为 404
func (e *UnknownZoneError) ErrorCode() int { return 404 }

// ZoneNotFoundError 几何未与任何分区相交
type ZoneNotFoundError struct {
	ParcelID string
}

func (e *ZoneNotFoundError) Error() string {
	if e.ParcelID != "" {
		return fmt.Sprintf("no zone intersects parcel %s", e.ParcelID)
	}
	return "no zone intersects the parcel geometry"
}

// ErrorCode 映射为 404
func (e *ZoneNotFoundError) ErrorCode() int { return 404 }
