// Package packet 定义客户端与服务端之间的报文分类与线格式
//
// 线格式：msgpack 数组 [kind, header, body]。header 先于 body 解码，
// 这样即使 body 损坏，接收方也能拿到序列号去推进逻辑时钟。
package packet

import "crawlnet/game"

// Kind 报文类型标签；两端必须使用同一套取值
type Kind uint8

const (
	KindID Kind = iota + 1
	KindInput
	KindLeave
	KindPlayer
	KindEnemy
	KindMap
	KindDespawn
	KindPlayerLeft
)

var kindNames = map[Kind]string{
	KindID:         "id",
	KindInput:      "input",
	KindLeave:      "leave",
	KindPlayer:     "player",
	KindEnemy:      "enemy",
	KindMap:        "map",
	KindDespawn:    "despawn",
	KindPlayerLeft: "player_left",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Header 每个报文都携带：发送方（或被描述实体）的网络 id 与发送方当前序列号
type Header struct {
	ID  uint16 `msgpack:"id"`
	Seq uint64 `msgpack:"seq"`
}

// Packet 所有报文的公共接口
type Packet interface {
	Kind() Kind
	Head() Header
}

// ClientPacket 客户端 -> 服务端
type ClientPacket interface {
	Packet
	clientPacket()
}

// ServerPacket 服务端 -> 客户端
type ServerPacket interface {
	Packet
	serverPacket()
}

// IDPacket 身份请求/应答：客户端以 id 0 发送，服务端在 Header.ID 中返回新分配的 id
type IDPacket struct {
	Header Header `msgpack:"-"`
}

// InputPacket 客户端尚未被确认的输入帧
type InputPacket struct {
	Header Header            `msgpack:"-"`
	Frames []game.InputFrame `msgpack:"frames"`
}

// LeavePacket 客户端主动断开
type LeavePacket struct {
	Header Header `msgpack:"-"`
}

// PlayerPacket 完整的玩家快照；Header.ID 为该玩家的网络 id
type PlayerPacket struct {
	Header Header           `msgpack:"-"`
	State  game.PlayerState `msgpack:"state"`
}

// EnemyPacket 单个敌人的快照
type EnemyPacket struct {
	Header   Header         `msgpack:"-"`
	Enemy    game.EnemyID   `msgpack:"enemy"`
	Type     game.EnemyKind `msgpack:"kind"`
	Movement game.Movement  `msgpack:"mv"`
	Position game.Vec2      `msgpack:"pos"`
	Health   game.Health    `msgpack:"hp"`
}

// MapPacket 当前房间的完整地形网格（行优先，每格一个地形码）
type MapPacket struct {
	Header   Header   `msgpack:"-"`
	Room     int      `msgpack:"room"` // 房间 z 层
	TileSize float64  `msgpack:"tile"`
	Rows     [][]byte `msgpack:"rows"`
}

// DespawnPacket 敌人被移除（生命值归零或离开房间）
type DespawnPacket struct {
	Header Header       `msgpack:"-"`
	Enemy  game.EnemyID `msgpack:"enemy"`
}

// PlayerLeftPacket 某个玩家断开或超时；Header.ID 为离开的玩家
type PlayerLeftPacket struct {
	Header Header `msgpack:"-"`
}

func (p *IDPacket) Kind() Kind         { return KindID }
func (p *InputPacket) Kind() Kind      { return KindInput }
func (p *LeavePacket) Kind() Kind      { return KindLeave }
func (p *PlayerPacket) Kind() Kind     { return KindPlayer }
func (p *EnemyPacket) Kind() Kind      { return KindEnemy }
func (p *MapPacket) Kind() Kind        { return KindMap }
func (p *DespawnPacket) Kind() Kind    { return KindDespawn }
func (p *PlayerLeftPacket) Kind() Kind { return KindPlayerLeft }

func (p *IDPacket) Head() Header         { return p.Header }
func (p *InputPacket) Head() Header      { return p.Header }
func (p *LeavePacket) Head() Header      { return p.Header }
func (p *PlayerPacket) Head() Header     { return p.Header }
func (p *EnemyPacket) Head() Header      { return p.Header }
func (p *MapPacket) Head() Header        { return p.Header }
func (p *DespawnPacket) Head() Header    { return p.Header }
func (p *PlayerLeftPacket) Head() Header { return p.Header }

func (*IDPacket) clientPacket()    {}
func (*InputPacket) clientPacket() {}
func (*LeavePacket) clientPacket() {}

func (*IDPacket) serverPacket()         {}
func (*PlayerPacket) serverPacket()     {}
func (*EnemyPacket) serverPacket()      {}
func (*MapPacket) serverPacket()        {}
func (*DespawnPacket) serverPacket()    {}
func (*PlayerLeftPacket) serverPacket() {}
