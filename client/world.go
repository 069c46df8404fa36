package client

import (
	"crawlnet/game"
	"crawlnet/grid"
)

// Lifecycle 远端实体在客户端的生命周期
// Unknown -> Spawned -> Updated(循环) -> Removed；Removed 为终态，同 id 再次出现按新实体处理
type Lifecycle uint8

const (
	Unknown Lifecycle = iota
	Spawned
	Updated
	Removed
)

func (l Lifecycle) String() string {
	switch l {
	case Spawned:
		return "spawned"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Animation 交给外部动画系统的输入；帧选择不在核心范围内
type Animation struct {
	Facing    game.Vec2
	Attacking bool
	Rolling   bool
}

func (a *Animation) update(s game.PlayerState) {
	if !s.Velocity.IsZero() {
		a.Facing = s.Velocity.Normalize()
	}
	a.Attacking = s.Attack
	a.Rolling = s.Roll
}

// Player 客户端的玩家实体
type Player struct {
	ID     game.NetworkID
	State  game.PlayerState
	Life   Lifecycle
	Local  bool
	Sprite string
	Half   game.Vec2
	Anim   Animation
	Inputs *game.InputQueue
}

// Enemy 客户端的敌人实体，只根据收到的快照渲染
type Enemy struct {
	ID       game.EnemyID
	Kind     game.EnemyKind
	Stats    game.EnemyStats
	Position game.Vec2
	Health   game.Health
	History  []game.Movement
	Life     Lifecycle
}

// Latest 最近一次运动样本
func (e *Enemy) Latest() game.Movement {
	if len(e.History) == 0 {
		return game.Movement{}
	}
	return e.History[len(e.History)-1]
}

// Observer 渲染/动画协作者；核心在实体出现、更新、消失时回调
type Observer interface {
	PlayerSpawned(p *Player)
	PlayerRemoved(p *Player)
	EnemySpawned(e *Enemy)
	EnemyRemoved(e *Enemy)
	RoomLoaded(r *grid.Room)
}

// NopObserver 什么也不做
type NopObserver struct{}

func (NopObserver) PlayerSpawned(*Player) {}
func (NopObserver) PlayerRemoved(*Player) {}
func (NopObserver) EnemySpawned(*Enemy)   {}
func (NopObserver) EnemyRemoved(*Enemy)   {}
func (NopObserver) RoomLoaded(*grid.Room) {}

// World 实体存储：普通的下标数组 + id 索引，删除时与末尾交换
type World struct {
	players  []*Player
	playerAt map[uint16]int
	enemies  []*Enemy
	enemyAt  map[game.EnemyID]int
}

// NewWorld 空世界
func NewWorld() *World {
	return &World{
		playerAt: make(map[uint16]int),
		enemyAt:  make(map[game.EnemyID]int),
	}
}

// Player 按网络 id 查找
func (w *World) Player(id uint16) (*Player, bool) {
	i, ok := w.playerAt[id]
	if !ok {
		return nil, false
	}
	return w.players[i], true
}

// Players 全部玩家（只读）
func (w *World) Players() []*Player { return w.players }

// Enemy 按敌人 id 查找
func (w *World) Enemy(id game.EnemyID) (*Enemy, bool) {
	i, ok := w.enemyAt[id]
	if !ok {
		return nil, false
	}
	return w.enemies[i], true
}

// Enemies 全部敌人（只读）
func (w *World) Enemies() []*Enemy { return w.enemies }

func (w *World) addPlayer(p *Player) {
	w.playerAt[p.ID.ID] = len(w.players)
	w.players = append(w.players, p)
}

func (w *World) removePlayer(id uint16) (*Player, bool) {
	i, ok := w.playerAt[id]
	if !ok {
		return nil, false
	}
	p := w.players[i]
	last := len(w.players) - 1
	w.players[i] = w.players[last]
	w.playerAt[w.players[i].ID.ID] = i
	w.players[last] = nil
	w.players = w.players[:last]
	delete(w.playerAt, id)
	p.Life = Removed
	return p, true
}

func (w *World) addEnemy(e *Enemy) {
	w.enemyAt[e.ID] = len(w.enemies)
	w.enemies = append(w.enemies, e)
}

func (w *World) removeEnemy(id game.EnemyID) (*Enemy, bool) {
	i, ok := w.enemyAt[id]
	if !ok {
		return nil, false
	}
	e := w.enemies[i]
	last := len(w.enemies) - 1
	w.enemies[i] = w.enemies[last]
	w.enemyAt[w.enemies[i].ID] = i
	w.enemies[last] = nil
	w.enemies = w.enemies[:last]
	delete(w.enemyAt, id)
	e.Life = Removed
	return e, true
}
