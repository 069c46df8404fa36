package server

import (
	"net/netip"
	"sort"
)

// Peers 管理已连接玩家的身份：按 id 与按地址双索引
// id 0 保留给服务端；分配时取最小的空闲 id，断开后 id 可复用
type Peers struct {
	max    int
	byID   map[uint16]*Player
	byAddr map[netip.AddrPort]*Player
}

// NewPeers 创建身份表
func NewPeers(max int) *Peers {
	return &Peers{
		max:    max,
		byID:   make(map[uint16]*Player),
		byAddr: make(map[netip.AddrPort]*Player),
	}
}

// Len 在线玩家数
func (m *Peers) Len() int { return len(m.byID) }

// ByID 按 id 查找
func (m *Peers) ByID(id uint16) *Player { return m.byID[id] }

// ByAddr 按地址查找
func (m *Peers) ByAddr(addr netip.AddrPort) *Player { return m.byAddr[addr] }

// Allocate 为新地址分配 id；满员时返回 0
func (m *Peers) Allocate() uint16 {
	if len(m.byID) >= m.max {
		return 0
	}
	for id := uint16(1); id != 0; id++ {
		if _, used := m.byID[id]; !used {
			return id
		}
	}
	return 0
}

// Add 登记玩家
func (m *Peers) Add(p *Player) {
	m.byID[p.ID.ID] = p
	m.byAddr[p.ID.Addr] = p
}

// Rebind 玩家地址变化（NAT 重绑定）时更新地址索引
// addr 已属于另一个玩家时拒绝，返回 false
func (m *Peers) Rebind(p *Player, addr netip.AddrPort) bool {
	if p.ID.Addr == addr {
		return true
	}
	if owner := m.byAddr[addr]; owner != nil && owner != p {
		return false
	}
	delete(m.byAddr, p.ID.Addr)
	p.ID.Addr = addr
	m.byAddr[addr] = p
	return true
}

// Remove 注销玩家
func (m *Peers) Remove(id uint16) *Player {
	p, ok := m.byID[id]
	if !ok {
		return nil
	}
	delete(m.byID, id)
	if m.byAddr[p.ID.Addr] == p {
		delete(m.byAddr, p.ID.Addr)
	}
	return p
}

// All 按 id 升序返回全部玩家（广播顺序稳定）
func (m *Peers) All() []*Player {
	out := make([]*Player, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.ID < out[j].ID.ID })
	return out
}

// Addrs 全部玩家地址（与 All 同序）
func (m *Peers) Addrs() []netip.AddrPort {
	all := m.All()
	out := make([]netip.AddrPort, len(all))
	for i, p := range all {
		out[i] = p.ID.Addr
	}
	return out
}
