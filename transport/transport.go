// Package transport 是核心与 UDP 之间的薄适配层
//
// 接收是非阻塞的：没有数据报时 Recv 立即返回 ok=false，这是“本 Tick 无新数据”，不是错误。
// 发送即发即弃，没有确认也没有重传。
package transport

import "net/netip"

// Datagram 一个收到的数据报
type Datagram struct {
	From    netip.AddrPort
	Payload []byte
}

// Conn 核心使用的传输接口
type Conn interface {
	// Send 发送一个数据报；失败只影响这一包
	Send(to netip.AddrPort, b []byte) error
	// Recv 非阻塞地取出一个数据报
	Recv() (Datagram, bool)
	LocalAddr() netip.AddrPort
	Close() error
}

// DefaultQueueSize 接收队列容量；满时丢弃新到的数据报
const DefaultQueueSize = 256
