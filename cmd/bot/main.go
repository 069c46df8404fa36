// bot 无界面客户端：连接服务端后随机游走并攻击，用于压测和联调
package main

import (
	"context"
	"flag"
	"math/rand"
	"net/netip"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"crawlnet/client"
	"crawlnet/config"
	"crawlnet/game"
	"crawlnet/grid"
	"crawlnet/logger"
	"crawlnet/transport"
)

// logObserver 把实体生命周期写到日志
type logObserver struct {
	log *zap.SugaredLogger
}

func (o logObserver) PlayerSpawned(p *client.Player) {
	o.log.Infow("player spawned", "id", p.ID.ID, "local", p.Local, "pos", p.State.Position)
}

func (o logObserver) PlayerRemoved(p *client.Player) {
	o.log.Infow("player removed", "id", p.ID.ID)
}

func (o logObserver) EnemySpawned(e *client.Enemy) {
	o.log.Debugw("enemy spawned", "id", e.ID, "kind", e.Kind.String(), "sprite", e.Stats.Sprite.Path)
}

func (o logObserver) EnemyRemoved(e *client.Enemy) {
	o.log.Debugw("enemy removed", "id", e.ID)
}

func (o logObserver) RoomLoaded(r *grid.Room) {
	o.log.Infow("room loaded", "z", r.Z, "width", r.Width, "height", r.Height, "doors", len(r.Doors))
}

var moves = []game.Key{game.KeyUp, game.KeyDown, game.KeyLeft, game.KeyRight}

func main() {
	var (
		cfgPath string
		server  string
		bind    string
		seconds int
	)
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to YAML config")
	flag.StringVar(&server, "server", "", "server address, overrides client.server")
	flag.StringVar(&bind, "bind", "0.0.0.0:0", "local UDP address")
	flag.IntVar(&seconds, "duration", 0, "stop after N seconds (0 means until Ctrl+C)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	if server != "" {
		cfg.Client.Server = server
	}
	if err := logger.Init(cfg.Log.File, cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("bot")

	to, err := netip.ParseAddrPort(cfg.Client.Server)
	if err != nil {
		log.Fatalf("server address %q: %v", cfg.Client.Server, err)
	}
	conn, err := transport.ListenUDP(bind, cfg.Server.QueueSize)
	if err != nil {
		log.Fatalf("bind %s: %v", bind, err)
	}
	defer conn.Close()

	c := client.New(conn, to, client.Options{
		TileSize:       cfg.Room.TileSize,
		InputRetention: cfg.Client.InputRetention,
		HistorySize:    cfg.Client.HistorySize,
		Observer:       logObserver{log: log},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
		defer cancel()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	heading := moves[rng.Intn(len(moves))]
	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := c.Leave(); err != nil {
				log.Warnf("leave: %v", err)
			}
			st := c.Stats()
			log.Infof("bot done: sent=%d received=%d malformed=%d", st.Sent, st.Received, st.Malformed)
			return
		case <-ticker.C:
		}

		if c.Self().Assigned() {
			keys := []game.Key{heading}
			if rng.Intn(10) == 0 {
				keys = append(keys, game.KeyAttack)
			}
			// 撞墙就换方向
			if res, err := c.PredictMove(game.NewKeySet(keys...), cfg.Server.PlayerSpeed); err == nil && (res.BlockedX || res.BlockedY) {
				heading = moves[rng.Intn(len(moves))]
			}
			c.PollInput(keys)
		}
		if err := c.Tick(); err != nil {
			log.Debugf("tick: %v", err)
		}
	}
}
