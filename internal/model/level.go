package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Level 规则层级（数值越大优先级越高，高层级覆盖低层级）
type Level int

// 层级常量
const (
	LevelCanton      Level = 10 // 州（canton）
	LevelCommune     Level = 20 // 市镇（commune）
	LevelSpecialZone Level = 30 // 特别规划区（PPA / plan spécial）
	LevelException   Level = 40 // 例外/豁免
)

var levelNames = map[Level]string{
	LevelCanton:      "CANTON",
	LevelCommune:     "COMMUNE",
	LevelSpecialZone: "SPECIAL_ZONE",
	LevelException:   "EXCEPTION",
}

// String 返回层级名称，未知层级返回 LEVEL_<n>
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL_%d", int(l))
}

// ParseLevel 解析层级（大小写不敏感，也接受数字与 LEVEL_<n>）
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}

	numeric := strings.TrimPrefix(name, "LEVEL_")
	if n, err := strconv.Atoi(numeric); err == nil {
		return Level(n), nil
	}

	return 0, fmt.Errorf("unknown rule level %q", s)
}

// MarshalJSON 序列化为名称
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON 接受名称或数字
func (l *Level) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*l = Level(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid level: %s", string(data))
	}

	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
