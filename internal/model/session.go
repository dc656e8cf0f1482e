package model

import "time"

// Session 会话记录（轻量，创建后不可变，重开会话产生新记录）
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShortID 用于界面展示的会话 ID 前缀（完整 ID 仍是后端调用的规范标识）
func (s *Session) ShortID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}
