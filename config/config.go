// Package config 读取 YAML 配置并校验
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"crawlnet/game"
)

// ErrInvalid 配置不合法（启动即失败）
var ErrInvalid = errors.New("invalid config")

// Config 服务端与客户端共用的配置
type Config struct {
	Server Server `yaml:"server"`
	Room   Room   `yaml:"room"`
	Enemy  Enemy  `yaml:"enemy"`
	Client Client `yaml:"client"`
	Log    Log    `yaml:"log"`
}

// Server 服务端网络与 Tick
type Server struct {
	Addr        string        `yaml:"addr"`
	HTTPAddr    string        `yaml:"http_addr"`
	TickRate    int           `yaml:"tick_rate"`
	MaxPlayers  int           `yaml:"max_players"`
	PeerTimeout time.Duration `yaml:"peer_timeout"`
	QueueSize   int           `yaml:"queue_size"`
	PlayerSpeed float64       `yaml:"player_speed"` // 像素 / Tick
	PlayerHP    float64       `yaml:"player_hp"`
	AttackRange float64       `yaml:"attack_range"`
	AttackDmg   float64       `yaml:"attack_damage"`
	Seed        int64         `yaml:"seed"` // 0 表示随机
}

// Room 房间网格
type Room struct {
	TileSize float64 `yaml:"tile_size"`
}

// Enemy 敌人生成
type Enemy struct {
	PerRoom int      `yaml:"per_room"`
	Kinds   []string `yaml:"kinds"` // 为空表示整张数据表
}

// Client 客户端
type Client struct {
	Server         string `yaml:"server"`
	InputRetention uint64 `yaml:"input_retention"` // 保留多少个 Tick 以内的输入
	HistorySize    int    `yaml:"history_size"`    // 每个敌人保留的运动样本数
}

// Log 日志
type Log struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default 默认配置
func Default() Config {
	return Config{
		Server: Server{
			Addr:        ":7777",
			HTTPAddr:    ":8080",
			TickRate:    30,
			MaxPlayers:  16,
			PeerTimeout: 5 * time.Second,
			QueueSize:   256,
			PlayerSpeed: 4,
			PlayerHP:    100,
			AttackRange: 40,
			AttackDmg:   2,
		},
		Room: Room{TileSize: 32},
		Enemy: Enemy{
			PerRoom: 4,
		},
		Client: Client{
			Server:         "127.0.0.1:7777",
			InputRetention: 32,
			HistorySize:    16,
		},
		Log: Log{Level: "info"},
	}
}

// Load 读取 path；文件不存在时返回默认配置
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 校验；敌人种类必须全部存在于数据表中
func (c Config) Validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("%w: server.tick_rate must be positive", ErrInvalid)
	}
	if c.Server.MaxPlayers <= 0 || c.Server.MaxPlayers > 0xfffe {
		return fmt.Errorf("%w: server.max_players out of range", ErrInvalid)
	}
	if c.Server.PeerTimeout <= 0 {
		return fmt.Errorf("%w: server.peer_timeout must be positive", ErrInvalid)
	}
	// 出生点在墙内侧一格的中心，格子必须装得下最大的碰撞盒
	if least := 2 * game.MaxHalfExtent(); c.Room.TileSize < least {
		return fmt.Errorf("%w: room.tile_size must be at least %g", ErrInvalid, least)
	}
	if c.Enemy.PerRoom < 0 {
		return fmt.Errorf("%w: enemy.per_room must not be negative", ErrInvalid)
	}
	if _, err := c.EnemyKinds(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// EnemyKinds 解析配置中的敌人种类
func (c Config) EnemyKinds() ([]game.EnemyKind, error) {
	kinds := make([]game.EnemyKind, 0, len(c.Enemy.Kinds))
	for _, name := range c.Enemy.Kinds {
		k, err := game.ParseEnemyKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// TickInterval 每个 Tick 的时长
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Server.TickRate)
}
