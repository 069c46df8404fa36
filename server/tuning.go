package server

import (
	"github.com/sasha-s/go-deadlock"

	"crawlnet/config"
)

// TuningValues 可在运行时热更新的规则参数
type TuningValues struct {
	PlayerSpeed      float64 `json:"playerSpeed"`
	MaxInputsPerTick int     `json:"maxInputsPerTick"`
	SimulateDropProb float64 `json:"simulateDropProb"`
	EnemySpeedScale  float64 `json:"enemySpeedScale"`
}

// Tuning 由管理接口（HTTP 协程）写、Tick 协程读
type Tuning struct {
	mu deadlock.RWMutex
	v  TuningValues
}

// NewTuning 以配置初始化
func NewTuning(cfg config.Config) *Tuning {
	return &Tuning{v: TuningValues{
		PlayerSpeed:      cfg.Server.PlayerSpeed,
		MaxInputsPerTick: 4,
		EnemySpeedScale:  1,
	}}
}

// Snapshot 当前参数副本；Tick 开始时取一次
func (t *Tuning) Snapshot() TuningValues {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v
}

// Update 在锁内修改参数
func (t *Tuning) Update(fn func(v *TuningValues)) TuningValues {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.v)
	if t.v.SimulateDropProb < 0 {
		t.v.SimulateDropProb = 0
	}
	if t.v.SimulateDropProb > 1 {
		t.v.SimulateDropProb = 1
	}
	if t.v.PlayerSpeed < 0 {
		t.v.PlayerSpeed = 0
	}
	if t.v.EnemySpeedScale < 0 {
		t.v.EnemySpeedScale = 0
	}
	return t.v
}
