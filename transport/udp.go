package transport

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"

	"crawlnet/logger"
	"crawlnet/packet"
)

// UDPConn 基于 net.UDPConn 的实现
// 独立的读协程把数据报压入有界通道，Tick 线程通过 Recv 非阻塞地取出
type UDPConn struct {
	conn  *net.UDPConn
	queue chan Datagram

	dropped atomic.Int64
	once    sync.Once
	done    chan struct{}
}

// ListenUDP 绑定本地地址；绑定失败（端口占用、权限不足）直接返回错误，由调用方决定退出
func ListenUDP(addr string, queueSize int) (*UDPConn, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", ua)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	c := &UDPConn{
		conn:  conn,
		queue: make(chan Datagram, queueSize),
		done:  make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

// readPump 独立协程：读取数据报并入队（满则丢弃，保证读不阻塞）
func (c *UDPConn) readPump() {
	buf := make([]byte, packet.MaxDatagram)
	for {
		n, from, err := c.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Log.Debugf("udp read: %v", err)
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		select {
		case c.queue <- Datagram{From: unmap(from), Payload: payload}:
		case <-c.done:
			return
		default:
			c.dropped.Add(1)
		}
	}
}

// Send 发送数据报
func (c *UDPConn) Send(to netip.AddrPort, b []byte) error {
	_, err := c.conn.WriteToUDPAddrPort(b, to)
	return err
}

// Recv 非阻塞取出一个数据报
func (c *UDPConn) Recv() (Datagram, bool) {
	select {
	case d := <-c.queue:
		return d, true
	default:
		return Datagram{}, false
	}
}

// LocalAddr 实际绑定的地址（端口 0 时可得到系统分配的端口）
func (c *UDPConn) LocalAddr() netip.AddrPort {
	return unmap(c.conn.LocalAddr().(*net.UDPAddr).AddrPort())
}

// unmap 把 IPv4-mapped IPv6 地址还原为 IPv4，保证同一对端总是同一个 key
func unmap(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// Dropped 因接收队列满而丢弃的数据报数
func (c *UDPConn) Dropped() int64 {
	return c.dropped.Load()
}

// Close 关闭套接字，读协程随之退出
func (c *UDPConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
