package server

import (
	"time"

	"crawlnet/game"
)

// Player 服务端的玩家实体（权威状态）
type Player struct {
	ID    game.NetworkID
	State game.PlayerState

	// pending 收到但尚未应用的输入帧，按序列号递增
	pending  []game.InputFrame
	lastSeen time.Time
	// protectUntil 出生保护截止的 Tick；到期后清除 Invulnerable
	protectUntil uint64
}

func newPlayer(id game.NetworkID, pos game.Vec2, hp float64, now time.Time) *Player {
	return &Player{
		ID: id,
		State: game.PlayerState{
			Position: pos,
			Health:   game.Health{Current: hp, Max: hp},
		},
		lastSeen: now,
	}
}

// queue 追加尚未见过的输入帧；客户端会重发未确认的帧，这里按序列号去重
func (p *Player) queue(frames []game.InputFrame) {
	newest := p.State.LastInput
	if n := len(p.pending); n > 0 {
		newest = p.pending[n-1].Seq
	}
	for _, f := range frames {
		if f.Seq <= newest {
			continue
		}
		p.pending = append(p.pending, f)
		newest = f.Seq
	}
}

// take 取出至多 max 个待应用的帧；max <= 0 表示不限
func (p *Player) take(max int) []game.InputFrame {
	n := len(p.pending)
	if max > 0 && n > max {
		n = max
	}
	out := make([]game.InputFrame, n)
	copy(out, p.pending[:n])
	p.pending = append(p.pending[:0], p.pending[n:]...)
	return out
}

// overlaps 与另一个碰撞盒是否重叠
func overlaps(a, ah, b, bh game.Vec2) bool {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx < ah.X+bh.X && dy < ah.Y+bh.Y
}
