package grid

import (
	"math/rand"

	"crawlnet/game"
)

// SizeBucket 房间尺寸档位；由外部“房间风格”生成器选出，这里只消费离散结果
type SizeBucket uint8

const (
	Small SizeBucket = iota
	Medium
	Large
)

// Range 档位对应的边长范围（格，闭区间）
func (b SizeBucket) Range() (int, int) {
	switch b {
	case Small:
		return 10, 14
	case Large:
		return 20, 28
	default:
		return 14, 20
	}
}

// BucketPicker 选择下一个房间的尺寸档位
type BucketPicker func(rng *rand.Rand) SizeBucket

// UniformBuckets 均匀选择档位
func UniformBuckets(rng *rand.Rand) SizeBucket {
	return SizeBucket(rng.Intn(3))
}

// Generate 写入房间地形：四周为墙，内部为地板，随机障碍，四条边中点各一扇门
// 障碍避开门所在的行/列以及贴墙一圈，保证门与出生点总是可达
func (m *Manager) Generate(r *Room, rng *rand.Rand) {
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			t := Floor
			if x == 0 || y == 0 || x == r.Width-1 || y == r.Height-1 {
				t = Wall
			}
			r.cells[y][x] = t
		}
	}

	midX, midY := r.Width/2, r.Height/2
	if r.Width > 6 && r.Height > 6 {
		n := (r.Width * r.Height) / 60
		for i := 0; i < n; i++ {
			x := 2 + rng.Intn(r.Width-4)
			y := 2 + rng.Intn(r.Height-4)
			if x == midX || y == midY {
				continue
			}
			t := Obstacle
			if rng.Intn(3) == 0 {
				t = Decor
			}
			r.cells[y][x] = t
		}
	}

	next := m.nextZ
	r.Doors = []Doorway{
		{Dir: North, X: midX, Y: 0, Next: next},
		{Dir: East, X: r.Width - 1, Y: midY, Next: next},
		{Dir: South, X: midX, Y: r.Height - 1, Next: next},
		{Dir: West, X: 0, Y: midY, Next: next},
	}
	for _, d := range r.Doors {
		r.SetCell(d.X, d.Y, Door)
	}
}

// NewRoom 在档位范围内随机尺寸，生成并设为当前房间
func (m *Manager) NewRoom(rng *rand.Rand, bucket SizeBucket) *Room {
	lo, hi := bucket.Range()
	w := lo + rng.Intn(hi-lo+1)
	h := lo + rng.Intn(hi-lo+1)
	r := m.AddRoom(float64(w)*m.tileSize, float64(h)*m.tileSize)
	m.Generate(r, rng)
	return r
}

// Transition 穿过 door 进入新房间，返回新房间与出生点
// 出生点在入口门对面的墙内侧一格，严格位于房间内部且不在门格上
func (m *Manager) Transition(door Doorway, rng *rand.Rand, pick BucketPicker) (*Room, game.Vec2) {
	if pick == nil {
		pick = UniformBuckets
	}
	r := m.NewRoom(rng, pick(rng))
	return r, r.SpawnFor(door.Dir)
}

// SpawnFor 从 entered 方向的门进入时的出生点（位于对面墙内侧）
func (r *Room) SpawnFor(entered Direction) game.Vec2 {
	midX, midY := r.Width/2, r.Height/2
	switch entered.Opposite() {
	case North:
		return r.CellCenter(midX, 1)
	case South:
		return r.CellCenter(midX, r.Height-2)
	case West:
		return r.CellCenter(1, midY)
	default:
		return r.CellCenter(r.Width-2, midY)
	}
}
