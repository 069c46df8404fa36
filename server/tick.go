package server

import (
	"context"
	"time"

	"crawlnet/logger"
)

// BeginTick 新 Tick 开始：推进自身逻辑时钟
func (s *Server) BeginTick() {
	s.clock.Tick()
}

// Tick 推进一帧：处理输入 → 更新世界 → 超时检查 → 广播结果
func (s *Server) Tick(now time.Time) {
	start := time.Now()
	s.BeginTick()
	s.ProcessInputs(now)
	s.UpdateWorld()
	s.expirePeers(now)
	s.Broadcast()
	s.tickSeq.Add(1)
	s.metrics.AddTick(time.Since(start).Nanoseconds())
}

// Run 按 TickRate 驱动 Tick，直到 ctx 取消
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()
	logger.Log.Infof("tick loop started: %d TPS", s.cfg.Server.TickRate)
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}

// shutdown 通知所有玩家并关闭观战连接
func (s *Server) shutdown() {
	for _, p := range s.peers.All() {
		s.removePlayer(p)
	}
	s.flush()
	s.spectators.CloseAll()
	logger.Log.Infof("tick loop stopped after %d ticks", s.TickSeq())
}
