package packet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"crawlnet/game"
)

func serverSamples() []ServerPacket {
	return []ServerPacket{
		&IDPacket{Header: Header{ID: 7, Seq: 12}},
		&PlayerPacket{
			Header: Header{ID: 3, Seq: 99},
			State: game.PlayerState{
				Position:  game.Vec2{X: 120.5, Y: 64.25},
				Velocity:  game.Vec2{X: -3, Y: 1.5},
				Health:    game.Health{Current: 42.5, Max: 100},
				Crouch:    true,
				Attack:    true,
				LastInput: 17,
			},
		},
		&EnemyPacket{
			Header: Header{ID: 0, Seq: 100},
			Enemy:  4,
			Type:   game.Ninja,
			Movement: game.Movement{
				Direction: game.Vec2{X: 1},
				Patrol:    game.AxisVertical,
				LastSeen:  game.Vec2{X: 10, Y: 20},
				HasSeen:   true,
			},
			Position: game.Vec2{X: 33, Y: 44},
			Health:   game.Health{Current: 12, Max: 25},
		},
		&MapPacket{
			Header:   Header{Seq: 5},
			Room:     -2,
			TileSize: 32,
			Rows:     [][]byte{{1, 1, 1}, {1, 0, 2}, {1, 1, 1}},
		},
		&DespawnPacket{Header: Header{Seq: 6}, Enemy: 9},
		&PlayerLeftPacket{Header: Header{ID: 2, Seq: 7}},
	}
}

func TestServerRoundTrip(t *testing.T) {
	for _, p := range serverSamples() {
		b, err := Encode(p)
		if err != nil {
			t.Fatalf("%s: encode: %v", p.Kind(), err)
		}
		h, got, err := DecodeServer(b)
		if err != nil {
			t.Fatalf("%s: decode: %v", p.Kind(), err)
		}
		if h != p.Head() {
			t.Fatalf("%s: header mismatch: %+v vs %+v", p.Kind(), h, p.Head())
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("%s: round trip mismatch:\n got %#v\nwant %#v", p.Kind(), got, p)
		}
	}
}

func TestClientRoundTrip(t *testing.T) {
	samples := []ClientPacket{
		&IDPacket{Header: Header{Seq: 1}},
		&InputPacket{
			Header: Header{ID: 7, Seq: 30},
			Frames: []game.InputFrame{
				{Seq: 29, Keys: game.NewKeySet(game.KeyUp)},
				{Seq: 30, Keys: game.NewKeySet(game.KeyLeft, game.KeyAttack)},
			},
		},
		&LeavePacket{Header: Header{ID: 7, Seq: 31}},
	}
	for _, p := range samples {
		b, err := Encode(p)
		if err != nil {
			t.Fatalf("%s: encode: %v", p.Kind(), err)
		}
		_, got, err := DecodeClient(b)
		if err != nil {
			t.Fatalf("%s: decode: %v", p.Kind(), err)
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("%s: round trip mismatch:\n got %#v\nwant %#v", p.Kind(), got, p)
		}
	}
}

func TestDecodeGarbageIsMalformed(t *testing.T) {
	_, p, err := DecodeServer([]byte{0xc1, 0x00, 0x13})
	if p != nil || !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v (%v)", err, p)
	}
	if HeaderUsable(err) {
		t.Fatalf("header must not be usable for a broken envelope")
	}
}

func TestBadBodyKeepsHeader(t *testing.T) {
	body, err := msgpack.Marshal("not a player")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := msgpack.Marshal(&envelope{Kind: KindPlayer, Header: Header{ID: 4, Seq: 77}, Body: body})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	h, p, err := DecodeServer(b)
	if p != nil || !errors.Is(err, ErrBadBody) {
		t.Fatalf("expected ErrBadBody, got %v", err)
	}
	if !HeaderUsable(err) || h.Seq != 77 || h.ID != 4 {
		t.Fatalf("expected usable header {4 77}, got %+v", h)
	}
}

func TestWrongDirectionRejected(t *testing.T) {
	b, err := Encode(&DespawnPacket{Header: Header{Seq: 3}, Enemy: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	h, p, err := DecodeClient(b)
	if p != nil || !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if h.Seq != 3 {
		t.Fatalf("header should still be decoded, got %+v", h)
	}
}
