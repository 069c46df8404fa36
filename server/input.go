package server

import (
	"net/netip"
	"time"

	"crawlnet/game"
	"crawlnet/logger"
	"crawlnet/packet"
)

// ProcessInputs 非阻塞地取完本 Tick 的全部数据报（没有数据就直接返回）
func (s *Server) ProcessInputs(now time.Time) {
	drop := s.tuning.Snapshot().SimulateDropProb
	for {
		d, ok := s.conn.Recv()
		if !ok {
			return
		}
		s.metrics.IncPacketsIn()
		if drop > 0 && s.rng.Float64() < drop {
			s.metrics.IncDropsSimulated()
			continue
		}
		s.HandleDatagram(d.From, d.Payload, now)
	}
}

// HandleDatagram 处理一个客户端数据报
// header 可用时先合并逻辑时钟（每包恰好一次），再处理负载；坏包静默丢弃，不回复也不重试
func (s *Server) HandleDatagram(from netip.AddrPort, b []byte, now time.Time) {
	h, p, err := packet.DecodeClient(b)
	if packet.HeaderUsable(err) {
		s.clock.Assign(h.ID, h.Seq)
	}
	if err != nil {
		s.metrics.IncMalformed()
		logger.Log.Debugf("drop datagram from %s: %v", from, err)
		return
	}

	switch v := p.(type) {
	case *packet.IDPacket:
		s.join(from, now)
	case *packet.InputPacket:
		s.onInput(from, v, now)
	case *packet.LeavePacket:
		s.onLeave(from, v.Header.ID)
	}
}

// join 身份请求：同一地址重复请求返回同一个 id；满员时忽略
func (s *Server) join(from netip.AddrPort, now time.Time) {
	if p := s.peers.ByAddr(from); p != nil {
		p.lastSeen = now
		s.sendTo(from, &packet.IDPacket{Header: s.header(p.ID.ID)})
		return
	}
	id := s.peers.Allocate()
	if id == game.UnassignedID {
		logger.Log.Warnf("join from %s refused: server full (%d)", from, s.peers.Len())
		return
	}

	r := s.rooms.Current()
	p := newPlayer(game.NetworkID{ID: id, Addr: from}, r.Center(), s.cfg.Server.PlayerHP, now)
	p.State.Invulnerable = true
	p.protectUntil = s.TickSeq() + spawnProtectTicks
	s.peers.Add(p)
	s.playerCount.Store(int64(s.peers.Len()))
	s.metrics.IncPeersJoined()

	// 先身份、再地图；玩家与敌人快照在本 Tick 的广播阶段发出
	s.sendTo(from, &packet.IDPacket{Header: s.header(id)})
	s.sendTo(from, s.mapPacket())
	logger.Log.Infof("player %d joined from %s (%d online)", id, from, s.peers.Len())
}

// onInput 记录输入帧，等 Tick 中统一应用
func (s *Server) onInput(from netip.AddrPort, in *packet.InputPacket, now time.Time) {
	p := s.peers.ByID(in.Header.ID)
	if p == nil {
		s.metrics.IncUnknownPeer()
		return
	}
	if !s.peers.Rebind(p, from) {
		// 该地址已分配了别的 id（身份应答丢失后客户端认错了快照）：重发它自己的身份
		owner := s.peers.ByAddr(from)
		owner.lastSeen = now
		s.metrics.IncMisrouted()
		s.sendTo(from, &packet.IDPacket{Header: s.header(owner.ID.ID)})
		logger.Log.Debugf("input for player %d from %s, which is player %d: identity re-sent", p.ID.ID, from, owner.ID.ID)
		return
	}
	p.lastSeen = now
	p.queue(in.Frames)
}

// onLeave 主动断开；只接受来自该玩家当前地址的请求
func (s *Server) onLeave(from netip.AddrPort, id uint16) {
	p := s.peers.ByID(id)
	if p == nil || p.ID.Addr != from {
		return
	}
	s.removePlayer(p)
	s.metrics.IncPeersLeft()
	logger.Log.Infof("player %d left", id)
}

// removePlayer 注销并通知其余玩家
func (s *Server) removePlayer(p *Player) {
	s.peers.Remove(p.ID.ID)
	s.playerCount.Store(int64(s.peers.Len()))
	s.broadcast(&packet.PlayerLeftPacket{Header: s.header(p.ID.ID)})
}

// expirePeers 超过 PeerTimeout 没有任何报文的玩家视为断线
func (s *Server) expirePeers(now time.Time) {
	for _, p := range s.peers.All() {
		if now.Sub(p.lastSeen) <= s.cfg.Server.PeerTimeout {
			continue
		}
		s.removePlayer(p)
		s.metrics.IncPeersTimedOut()
		logger.Log.Infof("player %d timed out after %s", p.ID.ID, now.Sub(p.lastSeen).Round(time.Millisecond))
	}
}

// applyInputs 应用每个玩家本 Tick 的输入帧（每帧移动一步，同帧限流）
func (s *Server) applyInputs(t TuningValues) {
	for _, p := range s.peers.All() {
		frames := p.take(t.MaxInputsPerTick)
		if rest := len(p.pending); rest > 0 {
			s.metrics.AddDeferred(rest)
		}
		start := p.State.Position
		if len(frames) == 0 {
			p.State.ApplyKeys(nil)
			p.State.Velocity = game.Vec2{}
			continue
		}
		for _, f := range frames {
			s.step(p, f.Keys, t)
			p.State.LastInput = f.Seq
		}
		p.State.Velocity = p.State.Position.Sub(start)
		s.metrics.AddApplied(len(frames))
	}
}

// step 按一帧的按键移动一步，并处理门与攻击
func (s *Server) step(p *Player, keys game.KeySet, t TuningValues) {
	p.State.ApplyKeys(keys)
	speed := t.PlayerSpeed
	switch {
	case p.State.Roll:
		speed *= 2
	case p.State.Sprint:
		speed *= 1.6
	case p.State.Crouch:
		speed *= 0.5
	}
	delta := keys.Direction().Scale(speed)
	if !delta.IsZero() {
		res := s.rooms.Move(p.State.Position, game.PlayerHalf, delta)
		p.State.Position = res.Pos
		if res.Door != nil && s.transition == nil {
			d := *res.Door
			s.transition = &d
			logger.Log.Debugf("player %d reached %s door", p.ID.ID, d.Dir)
		}
	}
	if p.State.Attack {
		s.attack(p)
	}
}
