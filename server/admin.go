package server

import (
	"encoding/json"
	"net/http"

	"crawlnet/logger"
)

// HandleAdminConfig 读取与热更新运行时参数
// GET /admin/config  返回当前参数
// POST /admin/config 以 JSON 载荷更新部分字段
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type patch struct {
		PlayerSpeed      *float64 `json:"playerSpeed,omitempty"`
		MaxInputsPerTick *int     `json:"maxInputsPerTick,omitempty"`
		SimulateDropProb *float64 `json:"simulateDropProb,omitempty"`
		EnemySpeedScale  *float64 `json:"enemySpeedScale,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.tuning.Snapshot())
	case http.MethodPost:
		var body patch
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		cur := s.tuning.Update(func(v *TuningValues) {
			if body.PlayerSpeed != nil {
				v.PlayerSpeed = *body.PlayerSpeed
			}
			if body.MaxInputsPerTick != nil {
				v.MaxInputsPerTick = *body.MaxInputsPerTick
			}
			if body.SimulateDropProb != nil {
				v.SimulateDropProb = *body.SimulateDropProb
			}
			if body.EnemySpeedScale != nil {
				v.EnemySpeedScale = *body.EnemySpeedScale
			}
		})
		writeJSON(w, http.StatusOK, cur)
		logger.Log.Infof("config updated: speed=%.2f maxInputsPerTick=%d drop=%.2f enemySpeed=%.2f",
			cur.PlayerSpeed, cur.MaxInputsPerTick, cur.SimulateDropProb, cur.EnemySpeedScale)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"session":    s.Session,
		"tick":       s.TickSeq(),
		"players":    s.playerCount.Load(),
		"spectators": s.spectators.Len(),
		"metrics":    s.metrics.Snapshot(),
	})
}

// Mux 管理、监控与观战路由
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/admin/config", s.HandleAdminConfig)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
