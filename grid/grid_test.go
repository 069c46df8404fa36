package grid

import (
	"math"
	"math/rand"
	"testing"

	"crawlnet/game"
)

const tile = 32.0

func openRoom(t *testing.T, w, h int) (*Manager, *Room) {
	t.Helper()
	m := NewManager(tile)
	r := m.AddRoom(float64(w)*tile, float64(h)*tile)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				r.SetCell(x, y, Wall)
			}
		}
	}
	return m, r
}

func TestAddRoomDimensionsRoundUp(t *testing.T) {
	m := NewManager(tile)
	r := m.AddRoom(100, 65)
	if r.Width != 4 || r.Height != 3 {
		t.Fatalf("expected 4x3 grid, got %dx%d", r.Width, r.Height)
	}
	if m.Current() != r {
		t.Fatalf("new room should become current")
	}
	if got := m.CurrentRoomMax(); got != (game.Vec2{X: 50, Y: 32.5}) {
		t.Fatalf("unexpected half extents %v", got)
	}
	if got := m.CurrentRoomSize(); got != (game.Vec2{X: 100, Y: 65}) {
		t.Fatalf("unexpected size %v", got)
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if r.Cell(x, y) != Floor {
				t.Fatalf("expected zeroed grid, got %d at %d,%d", r.Cell(x, y), x, y)
			}
		}
	}
}

func TestRoomsStackBelowPrevious(t *testing.T) {
	m := NewManager(tile)
	a := m.AddRoom(320, 320)
	b := m.AddRoom(320, 320)
	c := m.AddRoom(320, 320)
	if !(a.Z > b.Z && b.Z > c.Z) {
		t.Fatalf("expected decreasing z, got %d %d %d", a.Z, b.Z, c.Z)
	}
	if len(m.Rooms()) != 3 {
		t.Fatalf("old rooms should be kept, got %d", len(m.Rooms()))
	}
}

func TestGridBoundsSafety(t *testing.T) {
	m, r := openRoom(t, 5, 5)
	coords := []float64{
		-1e12, -33, -1, -0.0001, 0, 31.9, 32, 159.99, 160, 161, 1e12,
		math.Inf(1), math.Inf(-1), math.NaN(), math.MaxFloat64, -math.MaxFloat64,
	}
	before := r.Rows()
	for _, x := range coords {
		for _, y := range coords {
			inside := x >= 0 && y >= 0 && x < 160 && y < 160
			if !inside {
				m.SetCollide(x, y, Obstacle)
			}
			_ = m.TerrainAt(x, y)
			_ = r.Blocked(game.Vec2{X: x, Y: y}, game.PlayerHalf)
		}
	}
	after := r.Rows()
	for y := range before {
		for x := range before[y] {
			if before[y][x] != after[y][x] {
				t.Fatalf("out of range write changed cell %d,%d", x, y)
			}
		}
	}

	// 越界读取夹到最近格
	r.SetCell(4, 2, Door)
	if got := m.TerrainAt(1e9, 2.5*tile); got != Door {
		t.Fatalf("expected clamped read to hit the door, got %d", got)
	}
	if got := m.TerrainAt(-50, -50); got != Wall {
		t.Fatalf("expected clamped read to hit the corner wall, got %d", got)
	}
}

func TestSetCollideWritesTile(t *testing.T) {
	m, r := openRoom(t, 6, 6)
	m.SetCollide(2.5*tile, 3.2*tile, Obstacle)
	if r.Cell(2, 3) != Obstacle {
		t.Fatalf("expected obstacle at 2,3")
	}
	if m.TerrainAt(2*tile, 3*tile) != Obstacle {
		t.Fatalf("expected lookup to see obstacle")
	}
}

func TestWallSlide(t *testing.T) {
	_, r := openRoom(t, 10, 10)
	r.SetCell(2, 1, Wall)

	start := r.CellCenter(1, 1)
	res := r.Move(start, game.PlayerHalf, game.Vec2{X: 8, Y: 8})
	if !res.BlockedX || res.BlockedY {
		t.Fatalf("expected only X to be blocked, got %+v", res)
	}
	if res.Pos.X != start.X {
		t.Fatalf("expected X to stay at %f, got %f", start.X, res.Pos.X)
	}
	if res.Pos.Y != start.Y+8 {
		t.Fatalf("expected Y to advance to %f, got %f", start.Y+8, res.Pos.Y)
	}
}

func TestMoveIntoOpenSpace(t *testing.T) {
	_, r := openRoom(t, 10, 10)
	start := r.CellCenter(4, 4)
	res := r.Move(start, game.PlayerHalf, game.Vec2{X: 5, Y: -3})
	if res.BlockedX || res.BlockedY || res.Door != nil {
		t.Fatalf("unexpected block %+v", res)
	}
	if res.Pos != (game.Vec2{X: start.X + 5, Y: start.Y - 3}) {
		t.Fatalf("unexpected position %v", res.Pos)
	}
}

func TestMoveOntoDoorReportsDirection(t *testing.T) {
	m := NewManager(tile)
	rng := rand.New(rand.NewSource(3))
	r := m.NewRoom(rng, Small)

	var east Doorway
	for _, d := range r.Doors {
		if d.Dir == East {
			east = d
		}
	}
	start := r.CellCenter(east.X-1, east.Y)
	res := r.Move(start, game.PlayerHalf, game.Vec2{X: 10})
	if res.Door == nil {
		t.Fatalf("expected to touch the east door, got %+v", res)
	}
	if res.Door.Dir != East || res.Door.Next != m.NextZ() {
		t.Fatalf("unexpected door %+v", *res.Door)
	}
}

func TestGenerateDoorsAtMidpoints(t *testing.T) {
	m := NewManager(tile)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		r := m.NewRoom(rng, SizeBucket(i%3))
		if len(r.Doors) != 4 {
			t.Fatalf("expected 4 doors, got %d", len(r.Doors))
		}
		want := map[Direction][2]int{
			North: {r.Width / 2, 0},
			South: {r.Width / 2, r.Height - 1},
			West:  {0, r.Height / 2},
			East:  {r.Width - 1, r.Height / 2},
		}
		for _, d := range r.Doors {
			if pos := want[d.Dir]; pos != [2]int{d.X, d.Y} {
				t.Fatalf("%s door at %d,%d, want %v", d.Dir, d.X, d.Y, pos)
			}
			if r.Cell(d.X, d.Y) != Door {
				t.Fatalf("%s door cell not written", d.Dir)
			}
		}
		doors := 0
		for _, row := range r.Rows() {
			for _, c := range row {
				if Terrain(c) == Door {
					doors++
				}
			}
		}
		if doors != 4 {
			t.Fatalf("expected exactly 4 door cells, got %d", doors)
		}
	}
}

func TestDoorSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, dir := range []Direction{North, East, South, West} {
		m := NewManager(tile)
		old := m.NewRoom(rng, Medium)
		var door Doorway
		for _, d := range old.Doors {
			if d.Dir == dir {
				door = d
			}
		}

		r, spawn := m.Transition(door, rng, nil)
		if r == old || m.Current() != r {
			t.Fatalf("%s: expected a new current room", dir)
		}
		if r.Z != door.Next {
			t.Fatalf("%s: new room z %d, door promised %d", dir, r.Z, door.Next)
		}

		half := game.PlayerHalf
		if spawn.X-half.X <= 0 || spawn.Y-half.Y <= 0 || spawn.X+half.X >= r.PixelW || spawn.Y+half.Y >= r.PixelH {
			t.Fatalf("%s: spawn %v not strictly inside %vx%v", dir, spawn, r.PixelW, r.PixelH)
		}
		if r.Blocked(spawn, half) {
			t.Fatalf("%s: spawn %v is blocked", dir, spawn)
		}
		if _, onDoor := r.DoorUnder(spawn, half); onDoor {
			t.Fatalf("%s: spawn %v sits on a door", dir, spawn)
		}

		tx, ty := r.Tile(spawn.X, spawn.Y)
		switch dir.Opposite() {
		case North:
			if ty != 1 {
				t.Fatalf("%s: expected spawn next to north wall, got row %d", dir, ty)
			}
		case South:
			if ty != r.Height-2 {
				t.Fatalf("%s: expected spawn next to south wall, got row %d", dir, ty)
			}
		case West:
			if tx != 1 {
				t.Fatalf("%s: expected spawn next to west wall, got col %d", dir, tx)
			}
		case East:
			if tx != r.Width-2 {
				t.Fatalf("%s: expected spawn next to east wall, got col %d", dir, tx)
			}
		}
	}
}

func TestLoadGridMirrorsRows(t *testing.T) {
	src := NewManager(tile)
	rng := rand.New(rand.NewSource(5))
	r := src.NewRoom(rng, Small)

	dst := NewManager(16)
	got := dst.LoadGrid(r.Z, r.TileSize, r.Rows())
	if got.Width != r.Width || got.Height != r.Height || got.TileSize != r.TileSize {
		t.Fatalf("dimension mismatch %dx%d vs %dx%d", got.Width, got.Height, r.Width, r.Height)
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if got.Cell(x, y) != r.Cell(x, y) {
				t.Fatalf("cell %d,%d differs", x, y)
			}
		}
	}
	if len(got.Doors) != 4 {
		t.Fatalf("expected doors to be recovered, got %d", len(got.Doors))
	}
}

func TestSpawnClearOfWallsAtSmallestTile(t *testing.T) {
	ext := game.MaxHalfExtent()
	boxes := []game.Vec2{game.PlayerHalf, {X: ext, Y: ext}}
	for _, size := range []float64{2 * ext, 32, 48} {
		rng := rand.New(rand.NewSource(11))
		for _, dir := range []Direction{North, East, South, West} {
			m := NewManager(size)
			old := m.NewRoom(rng, Small)
			door, ok := old.DoorAt(doorCell(old, dir))
			if !ok {
				t.Fatalf("tile %v: no %s door", size, dir)
			}
			r, spawn := m.Transition(door, rng, nil)
			for _, half := range boxes {
				if r.Blocked(spawn, half) {
					t.Fatalf("tile %v %s: spawn %v blocked for box %v", size, dir, spawn, half)
				}
			}
		}
	}
}

func doorCell(r *Room, dir Direction) (int, int) {
	for _, d := range r.Doors {
		if d.Dir == dir {
			return d.X, d.Y
		}
	}
	return -1, -1
}
