package grid

import "crawlnet/game"

// MaxRetainedRooms 最多保留的房间数；更早生成的房间在新房间加入时丢弃
const MaxRetainedRooms = 16

// Manager 管理房间集合，任一时刻恰好一个当前房间
// 只由权威方（服务端）修改；客户端通过 LoadGrid 安装服务端下发的网格，之后只读
type Manager struct {
	tileSize float64
	rooms    []*Room
	current  int
	nextZ    int
}

// NewManager 创建房间管理器
func NewManager(tileSize float64) *Manager {
	return &Manager{tileSize: tileSize, current: -1}
}

// TileSize 格像素尺寸
func (m *Manager) TileSize() float64 { return m.tileSize }

// NextZ 下一个生成的房间将使用的 z 层（总在所有已有房间之下）
func (m *Manager) NextZ() int { return m.nextZ }

// AddRoom 分配一个全零（地板）网格并设为当前房间
func (m *Manager) AddRoom(pixelW, pixelH float64) *Room {
	r := newRoom(m.nextZ, m.tileSize, pixelW, pixelH)
	m.nextZ--
	m.push(r)
	return r
}

// LoadGrid 安装对端下发的网格并设为当前房间（客户端使用）
func (m *Manager) LoadGrid(z int, tileSize float64, rows [][]byte) *Room {
	if tileSize > 0 {
		m.tileSize = tileSize
	}
	h := len(rows)
	w := 0
	for _, row := range rows {
		if len(row) > w {
			w = len(row)
		}
	}
	r := newRoom(z, m.tileSize, float64(w)*m.tileSize, float64(h)*m.tileSize)
	for y, row := range rows {
		for x, b := range row {
			r.SetCell(x, y, Terrain(b))
		}
	}
	r.Doors = scanDoors(r)
	if z <= m.nextZ {
		m.nextZ = z - 1
	}
	m.push(r)
	return r
}

func (m *Manager) push(r *Room) {
	m.rooms = append(m.rooms, r)
	if len(m.rooms) > MaxRetainedRooms {
		m.rooms = append(m.rooms[:0], m.rooms[len(m.rooms)-MaxRetainedRooms:]...)
	}
	m.current = len(m.rooms) - 1
}

// Current 当前房间；尚无房间时为 nil
func (m *Manager) Current() *Room {
	if m.current < 0 {
		return nil
	}
	return m.rooms[m.current]
}

// Rooms 仍保留的全部房间（旧房间在前）
func (m *Manager) Rooms() []*Room {
	return m.rooms
}

// SetCollide 在当前房间写入地形码；越界忽略
func (m *Manager) SetCollide(x, y float64, t Terrain) {
	if r := m.Current(); r != nil {
		r.SetCollide(x, y, t)
	}
}

// TerrainAt 读取当前房间地形；没有房间时视为墙
func (m *Manager) TerrainAt(x, y float64) Terrain {
	r := m.Current()
	if r == nil {
		return Wall
	}
	return r.At(x, y)
}

// CurrentRoomMax 当前房间半尺寸（相机夹取、出生范围）
func (m *Manager) CurrentRoomMax() game.Vec2 {
	if r := m.Current(); r != nil {
		return r.Half()
	}
	return game.Vec2{}
}

// CurrentRoomSize 当前房间像素尺寸
func (m *Manager) CurrentRoomSize() game.Vec2 {
	if r := m.Current(); r != nil {
		return r.Size()
	}
	return game.Vec2{}
}

// scanDoors 从网格推断门：边界上的门格按所在边确定朝向
func scanDoors(r *Room) []Doorway {
	var doors []Doorway
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if r.cells[y][x] != Door {
				continue
			}
			d := Doorway{X: x, Y: y, Next: r.Z - 1}
			switch {
			case y == 0:
				d.Dir = North
			case y == r.Height-1:
				d.Dir = South
			case x == 0:
				d.Dir = West
			case x == r.Width-1:
				d.Dir = East
			default:
				continue
			}
			doors = append(doors, d)
		}
	}
	return doors
}
