// Package client 实现客户端一侧：输入缓冲与发送、入站快照的协调（reconciliation）
//
// 协调只依赖两个条件分支：“这个网络 id 本地是否已存在”、“自己的 id 是否仍为默认值”。
// 由此用同一条路径处理三种到达顺序：身份包先到、自己的快照先到、其他玩家的快照先到。
package client

import (
	"errors"
	"fmt"
	"net/netip"

	"crawlnet/clock"
	"crawlnet/game"
	"crawlnet/grid"
	"crawlnet/logger"
	"crawlnet/packet"
	"crawlnet/transport"
)

const (
	playerSprite = "players/knight.png"

	defaultRetention   = 32
	defaultHistorySize = 16
)

// Options 客户端可选项
type Options struct {
	TileSize       float64
	InputRetention uint64 // 早于 当前序列号-InputRetention 的输入会被丢弃
	HistorySize    int    // 每个敌人保留的运动样本数
	Observer       Observer
}

// Stats 客户端计数
type Stats struct {
	Received  int
	Malformed int
	Sent      int
}

// Client 一个连接到服务端的客户端
// 单线程使用：由调用方的 Tick 循环驱动
type Client struct {
	conn   transport.Conn
	server netip.AddrPort

	clock  *clock.Sequence
	self   game.NetworkID
	inputs *game.InputQueue
	world  *World
	rooms  *grid.Manager

	observer    Observer
	retention   uint64
	historySize int
	lastAck     uint64

	stats Stats
}

// New 创建客户端；身份尚未分配，时钟以下标 0 计时
func New(conn transport.Conn, server netip.AddrPort, opts Options) *Client {
	if opts.TileSize <= 0 {
		opts.TileSize = 32
	}
	if opts.InputRetention == 0 {
		opts.InputRetention = defaultRetention
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	return &Client{
		conn:        conn,
		server:      server,
		clock:       clock.New(game.UnassignedID),
		inputs:      game.NewInputQueue(),
		world:       NewWorld(),
		rooms:       grid.NewManager(opts.TileSize),
		observer:    opts.Observer,
		retention:   opts.InputRetention,
		historySize: opts.HistorySize,
	}
}

// Self 自己的网络身份
func (c *Client) Self() game.NetworkID { return c.self }

// Clock 逻辑时钟
func (c *Client) Clock() *clock.Sequence { return c.clock }

// World 本地实体
func (c *Client) World() *World { return c.world }

// Rooms 服务端下发的房间网格（只读）
func (c *Client) Rooms() *grid.Manager { return c.rooms }

// Inputs 本地输入队列
func (c *Client) Inputs() *game.InputQueue { return c.inputs }

// Stats 计数快照
func (c *Client) Stats() Stats { return c.stats }

// LocalPlayer 自己的实体（身份未知时不存在）
func (c *Client) LocalPlayer() (*Player, bool) {
	if !c.self.Assigned() {
		return nil, false
	}
	return c.world.Player(c.self.ID)
}

// Join 发送身份请求（id 0）
func (c *Client) Join() error {
	return c.send(&packet.IDPacket{Header: packet.Header{ID: game.UnassignedID, Seq: c.clock.Get()}})
}

// Leave 通知服务端主动断开
func (c *Client) Leave() error {
	if !c.self.Assigned() {
		return nil
	}
	return c.send(&packet.LeavePacket{Header: c.header()})
}

// PollInput 记录一次输入采样；同一个 Tick 内的多次采样会合并
func (c *Client) PollInput(keys []game.Key) {
	c.inputs.Push(c.clock.Get(), keys)
}

// Tick 固定网络 Tick：接收并协调 -> 推进时钟 -> 发送输入
func (c *Client) Tick() error {
	c.Receive()
	c.clock.Tick()
	return c.Flush()
}

// Receive 非阻塞地取完当前所有数据报，返回处理的数量
func (c *Client) Receive() int {
	n := 0
	for {
		d, ok := c.conn.Recv()
		if !ok {
			return n
		}
		if d.From != c.server {
			continue
		}
		c.HandleDatagram(d.Payload)
		n++
	}
}

// HandleDatagram 解码一个数据报：header 可用就先合并时钟，再处理负载；坏包丢弃
func (c *Client) HandleDatagram(b []byte) {
	c.stats.Received++
	h, p, err := packet.DecodeServer(b)
	if packet.HeaderUsable(err) {
		// 服务端报文的 Header.ID 是被描述的实体，Seq 却是服务端的计数：合并到服务端的槽位 0
		c.clock.Assign(game.UnassignedID, h.Seq)
	}
	if err != nil {
		c.stats.Malformed++
		logger.Log.Debugf("client: drop packet: %v", err)
		return
	}
	if err := c.Apply(p); err != nil {
		c.stats.Malformed++
		logger.Log.Debugf("client: ignore %s: %v", p.Kind(), err)
	}
}

// Apply 把一个权威报文合并进本地状态
func (c *Client) Apply(p packet.ServerPacket) error {
	switch v := p.(type) {
	case *packet.IDPacket:
		c.applyID(v.Header.ID)
	case *packet.PlayerPacket:
		c.applyPlayer(v)
	case *packet.EnemyPacket:
		return c.applyEnemy(v)
	case *packet.MapPacket:
		r := c.rooms.LoadGrid(v.Room, v.TileSize, v.Rows)
		c.observer.RoomLoaded(r)
	case *packet.DespawnPacket:
		if e, ok := c.world.removeEnemy(v.Enemy); ok {
			c.observer.EnemyRemoved(e)
		}
	case *packet.PlayerLeftPacket:
		if v.Header.ID == c.self.ID {
			return nil
		}
		if pl, ok := c.world.removePlayer(v.Header.ID); ok {
			c.observer.PlayerRemoved(pl)
		}
	default:
		return fmt.Errorf("unexpected packet %T", p)
	}
	return nil
}

// applyID 身份应答；与快照自举得到的 id 相同时不改变任何东西
// 不同则以服务端为准：原先认领的实体交还给它真正的主人，改认领 id
func (c *Client) applyID(id uint16) {
	if id == game.UnassignedID || id == c.self.ID {
		return
	}
	if c.self.Assigned() {
		logger.Log.Warnf("client: server corrected identity %d -> %d", c.self.ID, id)
		if old, ok := c.world.Player(c.self.ID); ok {
			old.Local = false
			old.ID.Addr = netip.AddrPort{}
			old.Inputs = game.NewInputQueue()
		}
		c.lastAck = 0
	}
	c.adopt(id)
	if pl, ok := c.world.Player(id); ok {
		pl.Local = true
		pl.ID.Addr = c.server
		pl.Inputs = c.inputs
		return
	}
	c.spawnPlayer(id, game.PlayerState{}, true)
}

// applyPlayer 玩家快照：命中则权威覆盖；未命中时自己 id 为默认值则认领，否则生成远端实体
func (c *Client) applyPlayer(v *packet.PlayerPacket) {
	id := v.Header.ID
	if id == game.UnassignedID {
		return
	}
	if pl, ok := c.world.Player(id); ok {
		pl.State = v.State
		pl.Life = Updated
		pl.Anim.update(v.State)
		if pl.Local {
			c.ack(v.State.LastInput)
		}
		return
	}
	if !c.self.Assigned() {
		c.adopt(id)
		c.spawnPlayer(id, v.State, true)
		c.ack(v.State.LastInput)
		return
	}
	c.spawnPlayer(id, v.State, false)
}

func (c *Client) adopt(id uint16) {
	c.self = game.NetworkID{ID: id, Addr: c.server}
	c.clock.NewIndex(id)
	logger.Log.Infof("client: assigned network id %d", id)
}

func (c *Client) spawnPlayer(id uint16, s game.PlayerState, local bool) *Player {
	pl := &Player{
		ID:     game.NetworkID{ID: id},
		State:  s,
		Life:   Spawned,
		Local:  local,
		Sprite: playerSprite,
		Half:   game.PlayerHalf,
		Inputs: game.NewInputQueue(),
	}
	if local {
		pl.ID.Addr = c.server
		pl.Inputs = c.inputs
	}
	pl.Anim.update(s)
	c.world.addPlayer(pl)
	c.observer.PlayerSpawned(pl)
	return pl
}

// applyEnemy 敌人快照：未命中按种类查表生成，命中则追加运动样本
func (c *Client) applyEnemy(v *packet.EnemyPacket) error {
	if e, ok := c.world.Enemy(v.Enemy); ok {
		e.Position = v.Position
		e.Health = v.Health
		e.History = append(e.History, v.Movement)
		if over := len(e.History) - c.historySize; over > 0 {
			e.History = append(e.History[:0], e.History[over:]...)
		}
		e.Life = Updated
		return nil
	}
	stats, err := v.Type.Stats()
	if err != nil {
		return err
	}
	e := &Enemy{
		ID:       v.Enemy,
		Kind:     v.Type,
		Stats:    stats,
		Position: v.Position,
		Health:   v.Health,
		History:  []game.Movement{v.Movement},
		Life:     Spawned,
	}
	c.world.addEnemy(e)
	c.observer.EnemySpawned(e)
	return nil
}

// ack 服务端确认到 seq 为止的输入已应用
func (c *Client) ack(seq uint64) {
	if seq > c.lastAck {
		c.lastAck = seq
		c.inputs.Prune(seq + 1)
	}
}

// Flush 发送本 Tick 的出站报文：身份未知时重复请求身份，否则发送未确认的输入
func (c *Client) Flush() error {
	if !c.self.Assigned() {
		return c.Join()
	}
	if now := c.clock.Get(); now > c.retention {
		c.inputs.Prune(now - c.retention)
	}
	frames := c.inputs.Since(c.lastAck)
	return c.send(&packet.InputPacket{Header: c.header(), Frames: frames})
}

// PredictMove 只读地用本地网格试探一次移动（渲染侧的碰撞探测）
func (c *Client) PredictMove(keys game.KeySet, speed float64) (grid.MoveResult, error) {
	pl, ok := c.LocalPlayer()
	if !ok {
		return grid.MoveResult{}, errors.New("client: no local player yet")
	}
	return c.rooms.Move(pl.State.Position, pl.Half, keys.Direction().Scale(speed)), nil
}

func (c *Client) header() packet.Header {
	return packet.Header{ID: c.self.ID, Seq: c.clock.Get()}
}

func (c *Client) send(p packet.ClientPacket) error {
	b, err := packet.Encode(p)
	if err != nil {
		return err
	}
	if err := c.conn.Send(c.server, b); err != nil {
		return fmt.Errorf("send %s: %w", p.Kind(), err)
	}
	c.stats.Sent++
	return nil
}
