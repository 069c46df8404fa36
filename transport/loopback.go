package transport

import (
	"errors"
	"net/netip"

	"github.com/sasha-s/go-deadlock"
)

// ErrClosed 端点已关闭
var ErrClosed = errors.New("transport: endpoint closed")

// Loopback 进程内的“网络”，用于测试与单机托管：
// 同步投递、可注入丢包，行为与 UDP 一致（无序保证之外的一切都不承诺）
type Loopback struct {
	mu        deadlock.Mutex
	endpoints map[netip.AddrPort]*LoopbackConn
	// Drop 返回 true 时丢弃该数据报
	Drop func(from, to netip.AddrPort, b []byte) bool
}

// NewLoopback 创建进程内网络
func NewLoopback() *Loopback {
	return &Loopback{endpoints: make(map[netip.AddrPort]*LoopbackConn)}
}

// Endpoint 在 addr 上创建端点，例如 "127.0.0.1:7777"
func (l *Loopback) Endpoint(addr string) (*LoopbackConn, error) {
	ap, err := netip.ParseAddrPort(addr)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.endpoints[ap]; ok {
		return nil, errors.New("transport: address in use: " + addr)
	}
	c := &LoopbackConn{net: l, addr: ap, queue: make([]Datagram, 0, 16)}
	l.endpoints[ap] = c
	return c, nil
}

// LoopbackConn Loopback 上的一个端点
type LoopbackConn struct {
	net  *Loopback
	addr netip.AddrPort

	mu     deadlock.Mutex
	queue  []Datagram
	closed bool
}

// Send 投递到目标端点；目标不存在时静默丢弃（与 UDP 一致）
func (c *LoopbackConn) Send(to netip.AddrPort, b []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.net.mu.Lock()
	dst := c.net.endpoints[to]
	drop := c.net.Drop
	c.net.mu.Unlock()
	if dst == nil || (drop != nil && drop(c.addr, to, b)) {
		return nil
	}

	payload := make([]byte, len(b))
	copy(payload, b)
	dst.mu.Lock()
	defer dst.mu.Unlock()
	if dst.closed || len(dst.queue) >= DefaultQueueSize {
		return nil
	}
	dst.queue = append(dst.queue, Datagram{From: c.addr, Payload: payload})
	return nil
}

// Recv 非阻塞取出
func (c *LoopbackConn) Recv() (Datagram, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Datagram{}, false
	}
	d := c.queue[0]
	c.queue = c.queue[1:]
	return d, true
}

// Inject 直接放入一个数据报（测试构造畸形包用）
func (c *LoopbackConn) Inject(from netip.AddrPort, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, Datagram{From: from, Payload: b})
}

// LocalAddr 端点地址
func (c *LoopbackConn) LocalAddr() netip.AddrPort { return c.addr }

// Close 关闭并从网络注销
func (c *LoopbackConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.queue = nil
	c.mu.Unlock()

	c.net.mu.Lock()
	delete(c.net.endpoints, c.addr)
	c.net.mu.Unlock()
	return nil
}
