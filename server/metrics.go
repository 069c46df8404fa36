package server

import (
	"sync/atomic"
)

// Metrics 记录服务端运行期的关键指标（用于监控与调试）
type Metrics struct {
	TickCount        int64 // 统计的 Tick 次数
	PacketsIn        int64 // 收到的数据报
	PacketsOut       int64 // 发出的数据报
	Malformed        int64 // 解码失败被丢弃的数据报
	UnknownPeer      int64 // 来自未知 id 的输入
	Misrouted        int64 // id 与来源地址不符的输入
	InputsApplied    int64 // 应用的输入帧
	InputsDeferred   int64 // 因同帧限流推迟到下一 Tick 的输入帧
	DropsSimulated   int64 // 因模拟丢包被丢弃的数据报
	SendErrors       int64 // 发送失败
	PeersJoined      int64 // 分配出去的身份
	PeersLeft        int64 // 主动断开
	PeersTimedOut    int64 // 超时移除
	EnemiesDespawned int64 // 广播的 DespawnPacket 数（按敌人计）
	RoomTransitions  int64 // 房间切换次数
	TotalTickNs      int64 // Tick 累计耗时（纳秒）
}

func (m *Metrics) IncPacketsIn()       { atomic.AddInt64(&m.PacketsIn, 1) }
func (m *Metrics) IncMalformed()       { atomic.AddInt64(&m.Malformed, 1) }
func (m *Metrics) IncUnknownPeer()     { atomic.AddInt64(&m.UnknownPeer, 1) }
func (m *Metrics) IncMisrouted()       { atomic.AddInt64(&m.Misrouted, 1) }
func (m *Metrics) IncDropsSimulated()  { atomic.AddInt64(&m.DropsSimulated, 1) }
func (m *Metrics) IncSendErrors()      { atomic.AddInt64(&m.SendErrors, 1) }
func (m *Metrics) IncPeersJoined()     { atomic.AddInt64(&m.PeersJoined, 1) }
func (m *Metrics) IncPeersLeft()       { atomic.AddInt64(&m.PeersLeft, 1) }
func (m *Metrics) IncPeersTimedOut()   { atomic.AddInt64(&m.PeersTimedOut, 1) }
func (m *Metrics) IncDespawned()       { atomic.AddInt64(&m.EnemiesDespawned, 1) }
func (m *Metrics) IncRoomTransitions() { atomic.AddInt64(&m.RoomTransitions, 1) }
func (m *Metrics) AddPacketsOut(n int) { atomic.AddInt64(&m.PacketsOut, int64(n)) }
func (m *Metrics) AddApplied(n int)    { atomic.AddInt64(&m.InputsApplied, int64(n)) }
func (m *Metrics) AddDeferred(n int)   { atomic.AddInt64(&m.InputsDeferred, int64(n)) }
func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":        tick,
		"packets_in":        atomic.LoadInt64(&m.PacketsIn),
		"packets_out":       atomic.LoadInt64(&m.PacketsOut),
		"malformed":         atomic.LoadInt64(&m.Malformed),
		"unknown_peer":      atomic.LoadInt64(&m.UnknownPeer),
		"misrouted":         atomic.LoadInt64(&m.Misrouted),
		"inputs_applied":    atomic.LoadInt64(&m.InputsApplied),
		"inputs_deferred":   atomic.LoadInt64(&m.InputsDeferred),
		"drops_simulated":   atomic.LoadInt64(&m.DropsSimulated),
		"send_errors":       atomic.LoadInt64(&m.SendErrors),
		"peers_joined":      atomic.LoadInt64(&m.PeersJoined),
		"peers_left":        atomic.LoadInt64(&m.PeersLeft),
		"peers_timed_out":   atomic.LoadInt64(&m.PeersTimedOut),
		"enemies_despawned": atomic.LoadInt64(&m.EnemiesDespawned),
		"room_transitions":  atomic.LoadInt64(&m.RoomTransitions),
		"avg_tick_ms":       avgMs,
	}
}
