package core

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"elara/pkg/config"
)

// Container owns every long-lived component's lifetime and hands out
// handles by argument. There is no package-level singleton anywhere in
// this module: the teacher's bridge/store/discovery globals, each guarded
// by its own sync.Once, are replaced by one explicit construction site.
type Container struct {
	Config    *config.NetworkConfig
	Identity  *Identity
	DAG       *LocalDAG
	Witnesses *WitnessStore
	Limiter   *RateLimiter
	Bus       *EventBus
	Discovery *Discovery
	Bridge    *L1Bridge

	log *logrus.Entry
}

// NewContainer constructs every component in dependency order — crypto &
// identity, then record/DAG, witness store, rate limiter, discovery,
// finally the bridge — and wires them together. Nothing here is lazily
// initialized; a Container is either fully usable or NewContainer returns
// an error.
func NewContainer(cfg *config.NetworkConfig) (*Container, error) {
	log := Logger("elara.container")

	identity, err := LoadIdentity(cfg.Identity.Path, EntityType(cfg.Identity.EntityType), Profile(cfg.Identity.Profile))
	if err != nil {
		return nil, err
	}

	dag, err := OpenDAG(DAGConfig{
		WALPath:   filepath.Join(cfg.Storage.DataDir, "dag.wal"),
		CacheSize: cfg.Storage.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	witnesses, err := OpenWitnessStore(filepath.Join(cfg.Storage.DataDir, "witness.wal"))
	if err != nil {
		_ = dag.Close()
		return nil, err
	}

	limiter := NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	bus := NewEventBus()

	var seeds []peerRecord
	if cfg.Discovery.SeedPeersFile != "" {
		if loaded, err := loadPeersFile(cfg.Discovery.SeedPeersFile); err == nil {
			seeds = loaded
		} else {
			log.WithError(err).Debug("seed peers file unavailable")
		}
	}

	discovery := NewDiscovery(DiscoveryConfig{
		SeedPeers:      seeds,
		PeersFilePath:  cfg.Discovery.PeersFile,
		RemoteFallback: cfg.Discovery.RemoteFallback,
		LANEnabled:     cfg.Discovery.LANEnabled,
		SelfIdentity:   identity.IdentityHash,
		SelfNodeType:   ParseNodeType(cfg.Server.NodeType),
		Port:           cfg.Server.Port,
	}, bus)

	c := &Container{
		Config:    cfg,
		Identity:  identity,
		DAG:       dag,
		Witnesses: witnesses,
		Limiter:   limiter,
		Bus:       bus,
		Discovery: discovery,
		log:       log,
	}

	bridge, err := NewL1Bridge(c)
	if err != nil {
		log.WithError(err).Warn("L1 bridge dormant")
	} else {
		c.Bridge = bridge
	}

	return c, nil
}

// Close tears down every owned resource. Safe to call once after Bootstrap
// or even if bootstrap was never called.
func (c *Container) Close() error {
	c.Discovery.Shutdown()
	if err := c.Witnesses.Close(); err != nil {
		return err
	}
	return c.DAG.Close()
}
