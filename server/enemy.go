package server

import (
	"fmt"

	"crawlnet/game"
	"crawlnet/grid"
	"crawlnet/logger"
	"crawlnet/packet"
)

// Enemy 服务端的敌人（唯一可以修改敌人状态的一方）
type Enemy struct {
	ID       game.EnemyID
	Kind     game.EnemyKind
	Stats    game.EnemyStats
	Pos      game.Vec2
	Health   game.Health
	Movement game.Movement
	Room     int // 所属房间的 z 层
}

// spawnEnemies 在房间内随机地板格上生成敌人，避开四个入口附近
func (s *Server) spawnEnemies(r *grid.Room) error {
	for i := 0; i < s.cfg.Enemy.PerRoom; i++ {
		kind := game.RollKind(s.rng, s.kinds)
		st, err := kind.Stats()
		if err != nil {
			// 种类表与掷骰范围失配：配置错误，继续运行会破坏共享状态
			return fmt.Errorf("spawn enemy: %w", err)
		}
		pos, ok := s.freeCell(r, st.Half)
		if !ok {
			continue
		}
		s.nextEnemyID++
		if s.nextEnemyID == 0 {
			s.nextEnemyID = 1
		}
		axis := game.AxisHorizontal
		if s.rng.Intn(2) == 0 {
			axis = game.AxisVertical
		}
		e := &Enemy{
			ID:     s.nextEnemyID,
			Kind:   kind,
			Stats:  st,
			Pos:    pos,
			Health: game.Health{Current: st.Health, Max: st.Health},
			Room:   r.Z,
			Movement: game.Movement{
				Patrol:    axis,
				Direction: patrolDir(axis, 1),
			},
		}
		s.enemies = append(s.enemies, e)
	}
	return nil
}

// freeCell 随机找一个不阻挡、离墙至少两格的格中心
func (s *Server) freeCell(r *grid.Room, half game.Vec2) (game.Vec2, bool) {
	if r.Width < 6 || r.Height < 6 {
		return game.Vec2{}, false
	}
	for tries := 0; tries < 32; tries++ {
		tx := 2 + s.rng.Intn(r.Width-4)
		ty := 2 + s.rng.Intn(r.Height-4)
		pos := r.CellCenter(tx, ty)
		if r.Blocked(pos, half) {
			continue
		}
		if _, onDoor := r.DoorUnder(pos, half); onDoor {
			continue
		}
		return pos, true
	}
	return game.Vec2{}, false
}

// inCurrentRoom 敌人是否属于玩家所在的房间；其他房间的敌人不模拟也不广播
func (s *Server) inCurrentRoom(e *Enemy) bool {
	return e.Room == s.rooms.Current().Z
}

func patrolDir(axis game.Axis, sign float64) game.Vec2 {
	if axis == game.AxisVertical {
		return game.Vec2{Y: sign}
	}
	return game.Vec2{X: sign}
}

// updateEnemies 敌人 AI：视野内追击，丢失目标后走到最后看到的位置，否则沿轴巡逻
func (s *Server) updateEnemies(t TuningValues) {
	players := s.peers.All()
	for _, e := range s.enemies {
		if !s.inCurrentRoom(e) {
			continue
		}
		s.think(e, players)
		speed := e.Stats.Speed * t.EnemySpeedScale
		delta := e.Movement.Direction.Scale(speed)
		if delta.IsZero() {
			continue
		}
		res := s.rooms.Move(e.Pos, e.Stats.Half, delta)
		if res.Door != nil {
			// 敌人不能离开房间
			res.BlockedX, res.BlockedY = delta.X != 0, delta.Y != 0
		} else {
			e.Pos = res.Pos
		}
		if !e.Movement.HasSeen && (res.BlockedX || res.BlockedY) {
			e.Movement.Direction = e.Movement.Direction.Scale(-1)
		}
	}

	for _, e := range s.enemies {
		if !s.inCurrentRoom(e) {
			continue
		}
		for _, p := range players {
			if p.State.Invulnerable || p.State.Health.Dead() {
				continue
			}
			if overlaps(e.Pos, e.Stats.Half, p.State.Position, game.PlayerHalf) {
				p.State.Health.Current -= e.Stats.Damage
			}
		}
	}
}

func (s *Server) think(e *Enemy, players []*Player) {
	var target *Player
	best := e.Stats.SpotDistance
	for _, p := range players {
		if d := e.Pos.Dist(p.State.Position); d <= best {
			best = d
			target = p
		}
	}
	m := &e.Movement
	switch {
	case target != nil:
		m.LastSeen = target.State.Position
		m.HasSeen = true
		m.Direction = target.State.Position.Sub(e.Pos).Normalize()
	case m.HasSeen:
		to := m.LastSeen.Sub(e.Pos)
		if to.Len() <= e.Stats.Speed {
			m.HasSeen = false
			m.Direction = patrolDir(m.Patrol, 1)
			return
		}
		m.Direction = to.Normalize()
	default:
		if m.Direction.IsZero() {
			m.Direction = patrolDir(m.Patrol, 1)
		}
	}
}

// attack 玩家近战：攻击范围内的敌人受到伤害
func (s *Server) attack(p *Player) {
	dmg := s.cfg.Server.AttackDmg
	for _, e := range s.enemies {
		if e.Health.Dead() || !s.inCurrentRoom(e) {
			continue
		}
		if e.Pos.Dist(p.State.Position) <= s.cfg.Server.AttackRange {
			e.Health.Current -= dmg
		}
	}
}

// reapEnemies 移除生命值 <= 0 的敌人，每个只广播一次 DespawnPacket
func (s *Server) reapEnemies() {
	alive := s.enemies[:0]
	for _, e := range s.enemies {
		if !e.Health.Dead() {
			alive = append(alive, e)
			continue
		}
		s.despawn(e)
		logger.Log.Debugf("enemy %d (%s) killed", e.ID, e.Kind)
	}
	for i := len(alive); i < len(s.enemies); i++ {
		s.enemies[i] = nil
	}
	s.enemies = alive
}

func (s *Server) despawn(e *Enemy) {
	s.broadcast(&packet.DespawnPacket{Header: s.header(game.UnassignedID), Enemy: e.ID})
	s.metrics.IncDespawned()
}

func (s *Server) enemyPacket(e *Enemy) *packet.EnemyPacket {
	return &packet.EnemyPacket{
		Header:   s.header(game.UnassignedID),
		Enemy:    e.ID,
		Type:     e.Kind,
		Movement: e.Movement,
		Position: e.Pos,
		Health:   e.Health,
	}
}
