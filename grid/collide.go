package grid

import "crawlnet/game"

// edge 碰撞盒右/下边界向内收一点，贴格对齐的盒子不会采样到相邻格
const edge = 1e-6

// MoveResult 一次移动的结果
type MoveResult struct {
	Pos      game.Vec2
	BlockedX bool
	BlockedY bool
	Door     *Doorway // 移动后碰撞盒压到门格时非空
}

// Blocked 碰撞盒四角是否有阻挡格
func (r *Room) Blocked(center, half game.Vec2) bool {
	for _, c := range corners(center, half) {
		if r.At(c.X, c.Y).Blocking() {
			return true
		}
	}
	return false
}

// DoorUnder 碰撞盒四角下的门（若有）
func (r *Room) DoorUnder(center, half game.Vec2) (Doorway, bool) {
	for _, c := range corners(center, half) {
		tx, ty := r.tileClamped(c.X, c.Y)
		if r.cells[ty][tx] != Door {
			continue
		}
		if d, ok := r.DoorAt(tx, ty); ok {
			return d, true
		}
	}
	return Doorway{}, false
}

// Move 以 AABB 逐轴检测移动
// 每个轴单独对原位置做试探：撞墙的轴速度乘数归零，另一轴照常前进，从而贴墙滑动
func (r *Room) Move(pos, half, delta game.Vec2) MoveResult {
	res := MoveResult{Pos: pos}
	mx, my := 1.0, 1.0
	if delta.X != 0 && r.Blocked(game.Vec2{X: pos.X + delta.X, Y: pos.Y}, half) {
		mx = 0
		res.BlockedX = true
	}
	if delta.Y != 0 && r.Blocked(game.Vec2{X: pos.X, Y: pos.Y + delta.Y}, half) {
		my = 0
		res.BlockedY = true
	}
	next := game.Vec2{X: pos.X + delta.X*mx, Y: pos.Y + delta.Y*my}
	// 两轴各自可行但对角格是墙时，退回只走 Y
	if mx != 0 && my != 0 && r.Blocked(next, half) {
		next.X = pos.X
		res.BlockedX = true
	}
	res.Pos = next
	if d, ok := r.DoorUnder(next, half); ok {
		res.Door = &d
	}
	return res
}

// Move 在当前房间移动；没有房间时原地不动
func (m *Manager) Move(pos, half, delta game.Vec2) MoveResult {
	r := m.Current()
	if r == nil {
		return MoveResult{Pos: pos, BlockedX: delta.X != 0, BlockedY: delta.Y != 0}
	}
	return r.Move(pos, half, delta)
}

func corners(c, h game.Vec2) [4]game.Vec2 {
	minX, minY := c.X-h.X, c.Y-h.Y
	maxX, maxY := c.X+h.X-edge, c.Y+h.Y-edge
	return [4]game.Vec2{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: minX, Y: maxY},
		{X: maxX, Y: maxY},
	}
}
