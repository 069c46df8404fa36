// Package clock 实现每个对端一份的逻辑时钟（Lamport 风格）
//
// UDP 不保证顺序，也可能重复投递；接收方只依赖 max 合并：
// 幂等、可交换，因此到达顺序与重复都不影响最终结果。
package clock

// Sequence 按对端 id 索引的计数器向量，外加一个“哪个槽是我自己”的下标
// 客户端在拿到服务端分配的 id 之前以下标 0 计时，之后通过 NewIndex 改绑
type Sequence struct {
	counters []uint64
	mine     int
}

// New 创建时钟，index 为自己的槽位（客户端未分配 id 时传 0）
func New(index uint16) *Sequence {
	s := &Sequence{mine: int(index)}
	s.grow(s.mine)
	return s
}

// Get 当前自己槽位的计数值
func (s *Sequence) Get() uint64 {
	return s.counters[s.mine]
}

// Index 自己的槽位
func (s *Sequence) Index() uint16 {
	return uint16(s.mine)
}

// Tick 推进本地计数一次并返回新值（每个网络 Tick 调用一次）
func (s *Sequence) Tick() uint64 {
	s.counters[s.mine]++
	return s.counters[s.mine]
}

// Assign 合并收到的计数值：对端槽位与自己槽位都取 max，永不回退
// 每个入站包（即便负载不可用）都必须恰好调用一次
func (s *Sequence) Assign(peer uint16, incoming uint64) {
	p := int(peer)
	s.grow(p)
	if incoming > s.counters[p] {
		s.counters[p] = incoming
	}
	if incoming > s.counters[s.mine] {
		s.counters[s.mine] = incoming
	}
}

// Peer 最近观察到的某个对端的计数值；从未见过的对端返回 0
func (s *Sequence) Peer(peer uint16) uint64 {
	if int(peer) >= len(s.counters) {
		return 0
	}
	return s.counters[peer]
}

// NewIndex 改绑自己的槽位；旧槽位的值会带入新槽位，保证 Get 不回退
func (s *Sequence) NewIndex(id uint16) {
	cur := s.counters[s.mine]
	s.mine = int(id)
	s.grow(s.mine)
	if cur > s.counters[s.mine] {
		s.counters[s.mine] = cur
	}
}

// grow 向量不足时扩容（对未知 id 永不越界）
func (s *Sequence) grow(i int) {
	if i < len(s.counters) {
		return
	}
	next := make([]uint64, i+1)
	copy(next, s.counters)
	s.counters = next
}
