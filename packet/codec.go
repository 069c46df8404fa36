package packet

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrMalformed 外层信封无法解析，header 不可用
	ErrMalformed = errors.New("malformed packet")
	// ErrBadBody header 可用，但 body 与类型不符
	ErrBadBody = errors.New("malformed packet body")
	// ErrUnknownKind header 可用，但类型不属于当前方向的报文分类
	ErrUnknownKind = errors.New("unknown packet kind")
)

// MaxDatagram 单个报文的最大字节数（UDP 接收缓冲区大小）
const MaxDatagram = 64 * 1024

type envelope struct {
	_msgpack struct{} `msgpack:",as_array"`

	Kind   Kind
	Header Header
	Body   msgpack.RawMessage
}

// HeaderUsable 解码错误是否仍然带回了有效的 header
// 接收方据此决定是否推进逻辑时钟
func HeaderUsable(err error) bool {
	return err == nil || !errors.Is(err, ErrMalformed)
}

// Encode 将任意报文编码为一个数据报
func Encode(p Packet) ([]byte, error) {
	body, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", p.Kind(), err)
	}
	b, err := msgpack.Marshal(&envelope{Kind: p.Kind(), Header: p.Head(), Body: body})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", p.Kind(), err)
	}
	return b, nil
}

func open(b []byte) (envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}

// DecodeClient 解码客户端报文（服务端使用）
func DecodeClient(b []byte) (Header, ClientPacket, error) {
	env, err := open(b)
	if err != nil {
		return Header{}, nil, err
	}
	var p ClientPacket
	switch env.Kind {
	case KindID:
		p = &IDPacket{}
	case KindInput:
		p = &InputPacket{}
	case KindLeave:
		p = &LeavePacket{}
	default:
		return env.Header, nil, fmt.Errorf("client %s: %w", env.Kind, ErrUnknownKind)
	}
	if err := unmarshalBody(env, p); err != nil {
		return env.Header, nil, err
	}
	setHeader(p, env.Header)
	return env.Header, p, nil
}

// DecodeServer 解码服务端报文（客户端使用）
func DecodeServer(b []byte) (Header, ServerPacket, error) {
	env, err := open(b)
	if err != nil {
		return Header{}, nil, err
	}
	var p ServerPacket
	switch env.Kind {
	case KindID:
		p = &IDPacket{}
	case KindPlayer:
		p = &PlayerPacket{}
	case KindEnemy:
		p = &EnemyPacket{}
	case KindMap:
		p = &MapPacket{}
	case KindDespawn:
		p = &DespawnPacket{}
	case KindPlayerLeft:
		p = &PlayerLeftPacket{}
	default:
		return env.Header, nil, fmt.Errorf("server %s: %w", env.Kind, ErrUnknownKind)
	}
	if err := unmarshalBody(env, p); err != nil {
		return env.Header, nil, err
	}
	setHeader(p, env.Header)
	return env.Header, p, nil
}

func unmarshalBody(env envelope, p Packet) error {
	if err := msgpack.Unmarshal(env.Body, p); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadBody, env.Kind, err)
	}
	return nil
}

func setHeader(p Packet, h Header) {
	switch v := p.(type) {
	case *IDPacket:
		v.Header = h
	case *InputPacket:
		v.Header = h
	case *LeavePacket:
		v.Header = h
	case *PlayerPacket:
		v.Header = h
	case *EnemyPacket:
		v.Header = h
	case *MapPacket:
		v.Header = h
	case *DespawnPacket:
		v.Header = h
	case *PlayerLeftPacket:
		v.Header = h
	}
}
