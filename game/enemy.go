package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// ErrUnknownKind 敌人种类不在数据表中（配置错误，启动时即失败）
var ErrUnknownKind = errors.New("unknown enemy kind")

// EnemyID 敌人标识（由服务端分配）
type EnemyID uint16

// EnemyKind 敌人种类
type EnemyKind uint8

const (
	Skeleton EnemyKind = iota
	BerryRat
	Ninja
	SplatMonkey
	Boss
)

// SpriteSheet 精灵图几何信息；由外部资源加载器按 Path 解析，核心不关心图片格式
type SpriteSheet struct {
	Path    string
	FrameW  int
	FrameH  int
	Columns int
	Rows    int
}

// EnemyStats 每种敌人的静态数据
type EnemyStats struct {
	Name         string
	Speed        float64 // 像素 / Tick
	SpotDistance float64 // 发现玩家的距离（像素）
	Health       float64
	Damage       float64 // 接触伤害 / Tick
	Half         Vec2    // 碰撞盒半尺寸
	Sprite       SpriteSheet
}

// enemyTable 以种类为下标；生成时随机范围取 len(enemyTable)，两者不会失配
var enemyTable = [...]EnemyStats{
	Skeleton: {
		Name: "skeleton", Speed: 2.0, SpotDistance: 160, Health: 30, Damage: 0.5,
		Half:   Vec2{X: 10, Y: 12},
		Sprite: SpriteSheet{Path: "enemies/skeleton.png", FrameW: 32, FrameH: 32, Columns: 4, Rows: 4},
	},
	BerryRat: {
		Name: "berry_rat", Speed: 3.0, SpotDistance: 120, Health: 10, Damage: 0.25,
		Half:   Vec2{X: 8, Y: 6},
		Sprite: SpriteSheet{Path: "enemies/berry_rat.png", FrameW: 24, FrameH: 16, Columns: 4, Rows: 4},
	},
	Ninja: {
		Name: "ninja", Speed: 3.5, SpotDistance: 220, Health: 25, Damage: 0.75,
		Half:   Vec2{X: 10, Y: 12},
		Sprite: SpriteSheet{Path: "enemies/ninja.png", FrameW: 32, FrameH: 32, Columns: 6, Rows: 4},
	},
	SplatMonkey: {
		Name: "splat_monkey", Speed: 2.5, SpotDistance: 180, Health: 40, Damage: 1.0,
		Half:   Vec2{X: 12, Y: 12},
		Sprite: SpriteSheet{Path: "enemies/splat_monkey.png", FrameW: 32, FrameH: 32, Columns: 4, Rows: 4},
	},
	Boss: {
		Name: "boss", Speed: 1.5, SpotDistance: 300, Health: 200, Damage: 2.0,
		Half:   Vec2{X: 14, Y: 14},
		Sprite: SpriteSheet{Path: "enemies/boss.png", FrameW: 64, FrameH: 64, Columns: 4, Rows: 2},
	},
}

// NumEnemyKinds 数据表大小
const NumEnemyKinds = len(enemyTable)

// MaxHalfExtent 玩家与所有敌人碰撞盒半尺寸中的最大值
// 格子边长不小于它的两倍时，任何实体放在格中心都不会压到相邻格
func MaxHalfExtent() float64 {
	m := math.Max(PlayerHalf.X, PlayerHalf.Y)
	for _, st := range enemyTable {
		m = math.Max(m, math.Max(st.Half.X, st.Half.Y))
	}
	return m
}

func (k EnemyKind) String() string {
	if int(k) < len(enemyTable) {
		return enemyTable[k].Name
	}
	return fmt.Sprintf("enemy_kind(%d)", uint8(k))
}

// Stats 查表；未知种类返回 ErrUnknownKind
func (k EnemyKind) Stats() (EnemyStats, error) {
	if int(k) >= len(enemyTable) {
		return EnemyStats{}, fmt.Errorf("kind %d: %w", uint8(k), ErrUnknownKind)
	}
	return enemyTable[k], nil
}

// ParseEnemyKind 按名称解析（配置文件使用）
func ParseEnemyKind(name string) (EnemyKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, st := range enemyTable {
		if st.Name == name {
			return EnemyKind(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownKind)
}

// RollKind 从给定种类池中随机一种；池为空时在整张表上掷骰
func RollKind(rng *rand.Rand, pool []EnemyKind) EnemyKind {
	if len(pool) == 0 {
		return EnemyKind(rng.Intn(len(enemyTable)))
	}
	return pool[rng.Intn(len(pool))]
}

// Axis 巡逻轴
type Axis uint8

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

// Movement 敌人的运动向量：当前方向、巡逻轴、最后看到玩家的位置
type Movement struct {
	Direction Vec2 `msgpack:"dir"`
	Patrol    Axis `msgpack:"axis"`
	LastSeen  Vec2 `msgpack:"seen"`
	HasSeen   bool `msgpack:"has_seen"`
}
