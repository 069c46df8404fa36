// Package server 是权威服务端：身份分配、输入应用、移动与碰撞、敌人 AI、房间切换与广播
//
// 世界状态只由 Tick 协程修改（单线程推进）；UDP 读协程只负责入队，
// HTTP 管理接口只接触原子计数、调参块与观战 hub。
package server

import (
	"math/rand"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"crawlnet/clock"
	"crawlnet/config"
	"crawlnet/game"
	"crawlnet/grid"
	"crawlnet/logger"
	"crawlnet/packet"
	"crawlnet/transport"
)

// spawnProtectTicks 出生/复活后的无敌 Tick 数
const spawnProtectTicks = 60

type outbound struct {
	to netip.AddrPort
	b  []byte
}

// Server 权威服务端
type Server struct {
	Session string

	cfg   config.Config
	conn  transport.Conn
	clock *clock.Sequence
	rng   *rand.Rand

	rooms *grid.Manager
	pick  grid.BucketPicker
	peers *Peers
	kinds []game.EnemyKind

	enemies     []*Enemy
	nextEnemyID game.EnemyID

	// 本 Tick 内第一个踩到门的玩家触发切换
	transition *grid.Doorway

	outbox []outbound

	tuning     *Tuning
	metrics    *Metrics
	spectators *Hub

	tickSeq     atomic.Uint64
	playerCount atomic.Int64
}

// Option 服务端可选项
type Option func(*Server)

// WithBucketPicker 替换房间尺寸档位选择（外部风格生成器的接入点）
func WithBucketPicker(p grid.BucketPicker) Option {
	return func(s *Server) { s.pick = p }
}

// WithRand 指定随机源（测试用确定性种子）
func WithRand(rng *rand.Rand) Option {
	return func(s *Server) { s.rng = rng }
}

// New 创建服务端并生成第一个房间
// 敌人种类表与配置不一致属于配置错误，直接返回
func New(cfg config.Config, conn transport.Conn, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kinds, err := cfg.EnemyKinds()
	if err != nil {
		return nil, err
	}
	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Server{
		Session:    uuid.NewString(),
		cfg:        cfg,
		conn:       conn,
		clock:      clock.New(game.UnassignedID),
		rng:        rand.New(rand.NewSource(seed)),
		rooms:      grid.NewManager(cfg.Room.TileSize),
		pick:       grid.UniformBuckets,
		peers:      NewPeers(cfg.Server.MaxPlayers),
		kinds:      kinds,
		tuning:     NewTuning(cfg),
		metrics:    &Metrics{},
		spectators: NewHub(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := s.rooms.NewRoom(s.rng, s.pick(s.rng))
	if err := s.spawnEnemies(r); err != nil {
		return nil, err
	}
	s.spectators.SetMap(mapView(r))
	logger.Log.Infof("server session %s: first room %dx%d z=%d, %d enemies",
		s.Session, r.Width, r.Height, r.Z, len(s.enemies))
	return s, nil
}

// Rooms 房间管理器
func (s *Server) Rooms() *grid.Manager { return s.rooms }

// Peers 在线玩家
func (s *Server) Peers() *Peers { return s.peers }

// Enemies 当前权威敌人集合
func (s *Server) Enemies() []*Enemy { return s.enemies }

// Metrics 运行指标
func (s *Server) Metrics() *Metrics { return s.metrics }

// Tuning 运行时调参
func (s *Server) Tuning() *Tuning { return s.tuning }

// Clock 服务端逻辑时钟
func (s *Server) Clock() *clock.Sequence { return s.clock }

// TickSeq 已完成的 Tick 数（可并发读取）
func (s *Server) TickSeq() uint64 { return s.tickSeq.Load() }

func (s *Server) header(id uint16) packet.Header {
	return packet.Header{ID: id, Seq: s.clock.Get()}
}

// sendTo 把报文放入出站队列，Tick 末尾按 FIFO 发送
func (s *Server) sendTo(to netip.AddrPort, p packet.ServerPacket) {
	b, err := packet.Encode(p)
	if err != nil {
		logger.Log.Errorf("encode %s: %v", p.Kind(), err)
		return
	}
	s.outbox = append(s.outbox, outbound{to: to, b: b})
}

// broadcast 发给所有已知玩家
func (s *Server) broadcast(p packet.ServerPacket) {
	b, err := packet.Encode(p)
	if err != nil {
		logger.Log.Errorf("encode %s: %v", p.Kind(), err)
		return
	}
	for _, addr := range s.peers.Addrs() {
		s.outbox = append(s.outbox, outbound{to: addr, b: b})
	}
}

// flush 发送出站队列；单包失败只记录，不影响其他包
func (s *Server) flush() {
	sent := 0
	for _, o := range s.outbox {
		if err := s.conn.Send(o.to, o.b); err != nil {
			s.metrics.IncSendErrors()
			logger.Log.Debugf("send to %s: %v", o.to, err)
			continue
		}
		sent++
	}
	s.metrics.AddPacketsOut(sent)
	for i := range s.outbox {
		s.outbox[i] = outbound{}
	}
	s.outbox = s.outbox[:0]
}
