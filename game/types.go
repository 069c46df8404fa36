// Package game 定义客户端与服务端共享的实体模型：网络身份、玩家状态、按键集合、输入队列与敌人数据表
package game

import (
	"math"
	"net/netip"
)

// UnassignedID 保留给“尚未分配 / 服务端”
const UnassignedID uint16 = 0

// NetworkID 标识一个由对端拥有的实体
type NetworkID struct {
	ID   uint16         `msgpack:"id"`
	Addr netip.AddrPort `msgpack:"-"` // 最近一次看到的地址，仅服务端使用，不上线
}

// Assigned 是否已分配
func (n NetworkID) Assigned() bool { return n.ID != UnassignedID }

// Vec2 二维向量（世界像素坐标，x 向右，y 向下）
type Vec2 struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool         { return v.X == 0 && v.Y == 0 }

// Normalize 单位化；零向量原样返回
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return Vec2{v.X / l, v.Y / l}
}

// Health 当前/最大生命值
type Health struct {
	Current float64 `msgpack:"cur"`
	Max     float64 `msgpack:"max"`
}

// Dead 生命值 <= 0
func (h Health) Dead() bool { return h.Current <= 0 }

// PlayerHalf 玩家碰撞盒半尺寸（像素）
var PlayerHalf = Vec2{X: 12, Y: 12}

// PlayerState 在网络上复制的玩家状态
type PlayerState struct {
	Position Vec2   `msgpack:"pos"`
	Velocity Vec2   `msgpack:"vel"`
	Health   Health `msgpack:"hp"`

	Crouch bool `msgpack:"crouch"`
	Roll   bool `msgpack:"roll"`
	Sprint bool `msgpack:"sprint"`
	Attack bool `msgpack:"attack"`

	// Invulnerable 显式无敌标记（调试 / 出生保护），敌人接触伤害跳过
	Invulnerable bool `msgpack:"inv"`

	// LastInput 服务端最后应用的输入序列号，客户端据此裁剪已确认的输入
	LastInput uint64 `msgpack:"ack"`
}

// ApplyKeys 根据本 Tick 的按键集合更新动作标记
func (p *PlayerState) ApplyKeys(keys KeySet) {
	p.Crouch = keys.Has(KeyCrouch)
	p.Roll = keys.Has(KeyRoll)
	p.Sprint = keys.Has(KeySprint)
	p.Attack = keys.Has(KeyAttack)
}
