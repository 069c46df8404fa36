package server

import (
	"encoding/json"

	"crawlnet/game"
	"crawlnet/grid"
	"crawlnet/logger"
	"crawlnet/packet"
)

// UpdateWorld 推进世界：应用输入 → 敌人 AI → 清理死亡 → 复活 → 房间切换
func (s *Server) UpdateWorld() {
	t := s.tuning.Snapshot()
	s.applyInputs(t)
	s.updateEnemies(t)
	s.reapEnemies()

	tick := s.TickSeq()
	for _, p := range s.peers.All() {
		if p.State.Health.Dead() {
			s.respawn(p, tick)
			continue
		}
		if p.State.Invulnerable && tick >= p.protectUntil {
			p.State.Invulnerable = false
		}
	}

	if s.transition != nil {
		d := *s.transition
		s.transition = nil
		if err := s.changeRoom(d); err != nil {
			logger.Log.Errorf("room transition: %v", err)
		}
	}
}

// respawn 死亡玩家回到当前房间中心并满血，附带出生保护
func (s *Server) respawn(p *Player, tick uint64) {
	p.State.Position = s.rooms.Current().Center()
	p.State.Velocity = game.Vec2{}
	p.State.Health.Current = p.State.Health.Max
	p.State.Invulnerable = true
	p.protectUntil = tick + spawnProtectTicks
	logger.Log.Infof("player %d respawned", p.ID.ID)
}

// changeRoom 整队穿过 door：属于旧房间的敌人逐个下线，生成新房间与新敌人
func (s *Server) changeRoom(d grid.Doorway) error {
	from := s.rooms.Current().Z
	kept := s.enemies[:0]
	for _, e := range s.enemies {
		if e.Room != from {
			kept = append(kept, e)
			continue
		}
		s.despawn(e)
	}
	clear(s.enemies[len(kept):])
	s.enemies = kept

	r, spawn := s.rooms.Transition(d, s.rng, s.pick)
	for _, p := range s.peers.All() {
		p.State.Position = spawn
		p.State.Velocity = game.Vec2{}
	}
	s.broadcast(s.mapPacket())
	s.spectators.SetMap(mapView(r))
	s.metrics.IncRoomTransitions()
	logger.Log.Infof("party went %s: room z=%d %dx%d", d.Dir, r.Z, r.Width, r.Height)
	return s.spawnEnemies(r)
}

// mapPacket 当前房间的完整网格
func (s *Server) mapPacket() *packet.MapPacket {
	r := s.rooms.Current()
	return &packet.MapPacket{
		Header:   s.header(game.UnassignedID),
		Room:     r.Z,
		TileSize: r.TileSize,
		Rows:     r.Rows(),
	}
}

// Broadcast 把本 Tick 结束时的权威状态发给所有玩家，并推送给观战端
// Header.ID 为该玩家的 id；敌人快照的 Header.ID 为 0
func (s *Server) Broadcast() {
	players := s.peers.All()
	for _, p := range players {
		s.broadcast(&packet.PlayerPacket{Header: s.header(p.ID.ID), State: p.State})
	}
	for _, e := range s.enemies {
		if s.inCurrentRoom(e) {
			s.broadcast(s.enemyPacket(e))
		}
	}
	s.flush()

	if s.spectators.Len() == 0 {
		return
	}
	view := stateView{Type: "state", Tick: s.TickSeq(), Room: s.rooms.Current().Z}
	for _, p := range players {
		view.Players = append(view.Players, playerView{
			ID: p.ID.ID, X: p.State.Position.X, Y: p.State.Position.Y,
			HP: p.State.Health.Current, Invulnerable: p.State.Invulnerable,
		})
	}
	for _, e := range s.enemies {
		if !s.inCurrentRoom(e) {
			continue
		}
		view.Enemies = append(view.Enemies, enemyView{
			ID: uint16(e.ID), Kind: e.Kind.String(),
			X: e.Pos.X, Y: e.Pos.Y, HP: e.Health.Current,
		})
	}
	b, err := json.Marshal(view)
	if err != nil {
		logger.Log.Errorf("marshal state view: %v", err)
		return
	}
	s.spectators.Publish(b)
}

// 观战端的 JSON 视图（文本帧）
type stateView struct {
	Type    string       `json:"type"`
	Tick    uint64       `json:"tick"`
	Room    int          `json:"room"`
	Players []playerView `json:"players"`
	Enemies []enemyView  `json:"enemies"`
}

type playerView struct {
	ID           uint16  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	HP           float64 `json:"hp"`
	Invulnerable bool    `json:"invulnerable,omitempty"`
}

type enemyView struct {
	ID   uint16  `json:"id"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	HP   float64 `json:"hp"`
}

type mapMessage struct {
	Type     string   `json:"type"`
	Room     int      `json:"room"`
	TileSize float64  `json:"tileSize"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Rows     []string `json:"rows"`
}

// mapView 房间地形的 JSON 文本帧；每行用地形码数字拼成字符串
func mapView(r *grid.Room) []byte {
	msg := mapMessage{Type: "map", Room: r.Z, TileSize: r.TileSize, Width: r.Width, Height: r.Height}
	for _, row := range r.Rows() {
		line := make([]byte, len(row))
		for i, c := range row {
			line[i] = '0' + c
		}
		msg.Rows = append(msg.Rows, string(line))
	}
	b, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Errorf("marshal map view: %v", err)
		return nil
	}
	return b
}
