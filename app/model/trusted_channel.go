package model

import "time"

// TrustedChannel 信任频道，命中即给满频道分
type TrustedChannel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ChannelID string    `gorm:"size:100;not null;uniqueIndex;comment:频道ID" json:"channel_id"`
	Name      string    `gorm:"size:200;comment:频道名称" json:"name"`
	Note      string    `gorm:"size:500;comment:备注" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (TrustedChannel) TableName() string {
	return "trusted_channels"
}
