package core

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/libp2p/zeroconf/v2"
	"github.com/sirupsen/logrus"
)

const serviceName = "_elara._tcp"
const serviceDomain = "local."

// remoteFallbackTimeout bounds the well-known-URL peer-list fetch; soft
// failure on timeout, matching the 3-5s budget spec'd for fallback fetches.
const remoteFallbackTimeout = 5 * time.Second

// peerRecord is the on-disk/over-the-wire shape of one peer-list entry.
// node_type is the canonical field name (the richer variant), but type is
// also accepted since the remote fallback source uses it instead.
type peerRecord struct {
	IdentityHash string `json:"identity_hash"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	NodeType     string `json:"node_type,omitempty"`
	Type         string `json:"type,omitempty"`
}

func (r peerRecord) resolvedNodeType() NodeType {
	if r.NodeType != "" {
		return ParseNodeType(r.NodeType)
	}
	return ParseNodeType(r.Type)
}

// DiscoveryConfig controls bootstrap peer sourcing and LAN advertisement.
type DiscoveryConfig struct {
	SeedPeers      []peerRecord
	PeersFilePath  string
	RemoteFallback string
	LANEnabled     bool
	SelfIdentity   string
	SelfNodeType   NodeType
	Port           int
}

// Discovery owns the peer table and the optional LAN mDNS advertisement. It
// emits PEER_DISCOVERED/PEER_LOST/NETWORK_STARTED/NETWORK_STOPPED on the
// bus it is handed — it never reaches for a global bus.
type Discovery struct {
	table  *PeerTable
	bus    *EventBus
	log    *logrus.Entry
	cfg    DiscoveryConfig
	server *zeroconf.Server
}

// NewDiscovery builds a Discovery over an empty peer table.
func NewDiscovery(cfg DiscoveryConfig, bus *EventBus) *Discovery {
	return &Discovery{
		table: NewPeerTable(cfg.SelfIdentity),
		bus:   bus,
		log:   Logger("elara.discovery"),
		cfg:   cfg,
	}
}

// Table returns the owned peer table.
func (d *Discovery) Table() *PeerTable { return d.table }

// Bootstrap ingests peers in priority order — seed list, then peers file,
// then (only if both produced zero peers) the remote fallback — and starts
// LAN advertisement/browsing if enabled. Every step is soft-failure: a
// missing file or unreachable fallback logs and the node proceeds with
// whatever peers it already has.
func (d *Discovery) Bootstrap(ctx context.Context) {
	n := d.ingest(d.cfg.SeedPeers)

	if fileRecords, err := loadPeersFile(d.cfg.PeersFilePath); err != nil {
		d.log.WithError(err).Debug("peers file unavailable")
	} else {
		n += d.ingest(fileRecords)
	}

	if n == 0 && d.cfg.RemoteFallback != "" {
		records, err := fetchRemotePeers(d.cfg.RemoteFallback)
		if err != nil {
			d.log.WithError(err).Debug("remote peer fallback unavailable")
		} else {
			d.ingest(records)
		}
	}

	if d.cfg.LANEnabled {
		d.startLAN()
	}

	d.bus.Emit(Event{Kind: EventNetworkStarted, Data: map[string]interface{}{
		"peer_count": d.table.Len(),
	}})
}

func (d *Discovery) ingest(records []peerRecord) int {
	n := 0
	for _, r := range records {
		if r.IdentityHash == d.cfg.SelfIdentity {
			continue
		}
		if p := d.table.Upsert(r.IdentityHash, r.Host, r.Port, r.resolvedNodeType()); p != nil {
			n++
			d.bus.Emit(Event{Kind: EventPeerDiscovered, Data: map[string]interface{}{
				"identity_hash": p.IdentityHash,
				"address":       p.Address(),
			}})
		}
	}
	return n
}

// peersFileEnvelope mirrors the peers file's documented shape,
// {"peers": [...]}, matching bootstrap.py's data.get("peers", []).
type peersFileEnvelope struct {
	Peers []peerRecord `json:"peers"`
}

func loadPeersFile(path string) ([]peerRecord, error) {
	if path == "" {
		return nil, Fail(ErrInput, "no peers file configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Fail(ErrTransport, "read peers file: %v", err)
	}
	var envelope peersFileEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, Fail(ErrVerify, "decode peers file: %v", err)
	}
	return envelope.Peers, nil
}

// seedNodesEnvelope mirrors the remote fallback's documented shape,
// {"seed_nodes": [{host, port, type}]}, matching bootstrap.py's
// data.get("seed_nodes", []).
type seedNodesEnvelope struct {
	SeedNodes []peerRecord `json:"seed_nodes"`
}

func fetchRemotePeers(url string) ([]peerRecord, error) {
	client := &http.Client{Timeout: remoteFallbackTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, Fail(ErrTransport, "fetch remote peers: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, Fail(ErrTransport, "remote peers fetch status %d", resp.StatusCode)
	}
	var envelope seedNodesEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, Fail(ErrVerify, "decode remote peers: %v", err)
	}
	return envelope.SeedNodes, nil
}

// startLAN advertises this node over mDNS and begins browsing for others.
// Failure here is non-fatal: the node falls back to explicit peers only.
func (d *Discovery) startLAN() {
	txt := []string{
		"identity=" + d.cfg.SelfIdentity,
		"node_type=" + string(d.cfg.SelfNodeType),
	}
	server, err := zeroconf.Register(
		d.cfg.SelfIdentity,
		serviceName,
		serviceDomain,
		d.cfg.Port,
		txt,
		nil,
	)
	if err != nil {
		d.log.WithError(err).Warn("LAN advertisement unavailable; explicit peers only")
		return
	}
	d.server = server

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		d.log.WithError(err).Warn("LAN browser unavailable; explicit peers only")
		return
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	go d.consumeLANEntries(entries)

	go func() {
		ctx := context.Background()
		if err := resolver.Browse(ctx, serviceName, serviceDomain, entries); err != nil {
			d.log.WithError(err).Debug("LAN browse ended")
		}
	}()
}

func (d *Discovery) consumeLANEntries(entries <-chan *zeroconf.ServiceEntry) {
	for entry := range entries {
		identity, nodeType := parseLANText(entry.Text)
		if identity == "" || identity == d.cfg.SelfIdentity {
			continue
		}
		if len(entry.AddrIPv4) == 0 {
			continue
		}
		host := entry.AddrIPv4[0].String()
		if p := d.table.Upsert(identity, host, entry.Port, nodeType); p != nil {
			d.bus.Emit(Event{Kind: EventPeerDiscovered, Data: map[string]interface{}{
				"identity_hash": p.IdentityHash,
				"address":       p.Address(),
			}})
		}
	}
}

func parseLANText(txt []string) (identity string, nodeType NodeType) {
	nodeType = NodeLeaf
	for _, entry := range txt {
		switch {
		case strings.HasPrefix(entry, "identity="):
			identity = strings.TrimPrefix(entry, "identity=")
		case strings.HasPrefix(entry, "node_type="):
			nodeType = ParseNodeType(strings.TrimPrefix(entry, "node_type="))
		}
	}
	return identity, nodeType
}

// Shutdown tears down LAN advertisement best-effort and emits
// NETWORK_STOPPED regardless of whether teardown succeeded.
func (d *Discovery) Shutdown() {
	if d.server != nil {
		d.server.Shutdown()
	}
	d.bus.Emit(Event{Kind: EventNetworkStopped, Data: nil})
}

// ScanAndHeartbeat marks stale peers and pings every known peer once,
// emitting PEER_LOST for any peer that transitions to STALE as a result.
func (d *Discovery) ScanAndHeartbeat(client Pinger) {
	now := time.Now()
	for _, hash := range d.table.ScanStale(now) {
		d.bus.Emit(Event{Kind: EventPeerLost, Data: map[string]interface{}{"identity_hash": hash}})
	}

	before := make(map[string]PeerState, d.table.Len())
	for _, p := range d.table.All() {
		before[p.IdentityHash] = p.State
	}

	HeartbeatOnce(d.table, client)

	for _, p := range d.table.All() {
		if before[p.IdentityHash] != StateStale && p.State == StateStale {
			d.bus.Emit(Event{Kind: EventPeerLost, Data: map[string]interface{}{"identity_hash": p.IdentityHash}})
		}
	}
}
