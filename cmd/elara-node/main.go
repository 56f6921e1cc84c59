// Command elara-node runs the Layer 2 network service: HTTP record/witness
// exchange, peer discovery, and the Layer 1 bridge that signs cognitive
// events into the local DAG.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	core "elara/core"
	"elara/pkg/config"
	"elara/pkg/utils"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load(utils.EnvOrDefault("ELARA_CONFIG_PATH", ""))
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(lvl)
	}
	log := core.Logger("elara.node")

	container, err := core.NewContainer(cfg)
	if err != nil {
		log.Fatalf("init container: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.Discovery.Bootstrap(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := core.NewServer(container, addr)

	client := core.NewNetworkClient(cfg.ClientTimeout(), cfg.PingTimeout())
	stopHeartbeat := startHeartbeatLoop(ctx, container, client)

	go func() {
		log.Infof("listening on %s", addr)
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	stopHeartbeat()
	cancel()
	_ = srv.Shutdown()
	if err := container.Close(); err != nil {
		log.Errorf("container close: %v", err)
	}
}

// startHeartbeatLoop runs Discovery.ScanAndHeartbeat on a fixed interval
// until the returned stop function is called or ctx is done.
func startHeartbeatLoop(ctx context.Context, c *core.Container, client *core.NetworkClient) func() {
	ticker := time.NewTicker(30 * time.Second)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Discovery.ScanAndHeartbeat(client)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}
