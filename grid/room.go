// Package grid 维护每个房间的地形网格：权威碰撞、门检测、房间生成与切换
//
// 坐标约定：房间局部像素坐标，原点在左上角，x 向右，y 向下。
// 网格按 [y][x] 存储。任何越界访问都不会 panic：写入被忽略，读取被夹到最近的有效格。
package grid

import (
	"math"

	"crawlnet/game"
)

// Terrain 地形码
type Terrain uint8

const (
	Floor    Terrain = 0
	Wall     Terrain = 1 // 阻挡
	Door     Terrain = 2 // 触发房间切换
	Obstacle Terrain = 3 // 阻挡
	Decor    Terrain = 4 // 装饰，可行走
)

// Blocking 是否阻挡移动
func (t Terrain) Blocking() bool {
	return t == Wall || t == Obstacle
}

// Direction 门的朝向
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return "unknown"
}

// Opposite 相反方向
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Doorway 一扇门：朝向、所在格、切换后新房间将使用的 z 层
type Doorway struct {
	Dir  Direction
	X, Y int
	Next int
}

// Room 单个房间
type Room struct {
	Z        int
	TileSize float64
	Width    int // 格
	Height   int // 格
	PixelW   float64
	PixelH   float64
	Doors    []Doorway

	cells [][]Terrain
}

func newRoom(z int, tileSize, pixelW, pixelH float64) *Room {
	w := int(math.Ceil(pixelW / tileSize))
	h := int(math.Ceil(pixelH / tileSize))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	cells := make([][]Terrain, h)
	for y := range cells {
		cells[y] = make([]Terrain, w)
	}
	return &Room{
		Z:        z,
		TileSize: tileSize,
		Width:    w,
		Height:   h,
		PixelW:   pixelW,
		PixelH:   pixelH,
		cells:    cells,
	}
}

// Size 房间像素尺寸
func (r *Room) Size() game.Vec2 {
	return game.Vec2{X: r.PixelW, Y: r.PixelH}
}

// Half 房间像素半尺寸
func (r *Room) Half() game.Vec2 {
	return game.Vec2{X: r.PixelW / 2, Y: r.PixelH / 2}
}

// InBounds 格坐标是否在网格内
func (r *Room) InBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < r.Width && ty < r.Height
}

// Tile 像素坐标所在格（不夹取，可能越界）
func (r *Room) Tile(x, y float64) (int, int) {
	return int(math.Floor(x / r.TileSize)), int(math.Floor(y / r.TileSize))
}

// clampTile 夹到 [0, dim-1]
func (r *Room) clampTile(tx, ty int) (int, int) {
	return clamp(tx, 0, r.Width-1), clamp(ty, 0, r.Height-1)
}

// Cell 读取格；越界夹取
func (r *Room) Cell(tx, ty int) Terrain {
	tx, ty = r.clampTile(tx, ty)
	return r.cells[ty][tx]
}

// SetCell 写入格；越界忽略
func (r *Room) SetCell(tx, ty int, t Terrain) {
	if !r.InBounds(tx, ty) {
		return
	}
	r.cells[ty][tx] = t
}

// At 读取像素坐标处的地形；越界夹取，NaN 视为 0
func (r *Room) At(x, y float64) Terrain {
	return r.Cell(r.tileClamped(x, y))
}

// SetCollide 按像素坐标写入地形码；越界（含负数、溢出、NaN）忽略
func (r *Room) SetCollide(x, y float64, t Terrain) {
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 {
		return
	}
	fx, fy := x/r.TileSize, y/r.TileSize
	if fx >= float64(r.Width) || fy >= float64(r.Height) {
		return
	}
	r.SetCell(int(fx), int(fy), t)
}

func (r *Room) tileClamped(x, y float64) (int, int) {
	return clampFloat(x/r.TileSize, r.Width), clampFloat(y/r.TileSize, r.Height)
}

// CellCenter 格中心的像素坐标
func (r *Room) CellCenter(tx, ty int) game.Vec2 {
	return game.Vec2{
		X: (float64(tx) + 0.5) * r.TileSize,
		Y: (float64(ty) + 0.5) * r.TileSize,
	}
}

// Center 房间中心
func (r *Room) Center() game.Vec2 {
	return r.CellCenter(r.Width/2, r.Height/2)
}

// DoorAt 查询某格上的门
func (r *Room) DoorAt(tx, ty int) (Doorway, bool) {
	for _, d := range r.Doors {
		if d.X == tx && d.Y == ty {
			return d, true
		}
	}
	return Doorway{}, false
}

// Rows 网格的字节副本（MapPacket 使用）
func (r *Room) Rows() [][]byte {
	rows := make([][]byte, r.Height)
	for y, row := range r.cells {
		rows[y] = make([]byte, len(row))
		for x, t := range row {
			rows[y][x] = byte(t)
		}
	}
	return rows
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat 将浮点格坐标夹到 [0, n-1]，避免大数转 int 溢出
func clampFloat(f float64, n int) int {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return int(f)
}
