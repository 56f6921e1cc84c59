package core

import (
	"fmt"
	"sync"
	"time"
)

// NodeType is a peer's declared role on the network.
type NodeType string

const (
	NodeLeaf    NodeType = "leaf"
	NodeRelay   NodeType = "relay"
	NodeWitness NodeType = "witness"
)

// ParseNodeType maps a node-type string back to its enum, defaulting to
// NodeLeaf for anything unrecognized rather than failing — peers
// advertising an unknown type are still worth tracking.
func ParseNodeType(s string) NodeType {
	switch NodeType(s) {
	case NodeRelay:
		return NodeRelay
	case NodeWitness:
		return NodeWitness
	default:
		return NodeLeaf
	}
}

// PeerState is a peer's lifecycle state. There are no terminal states:
// removal from the table is a policy decision, not automatic.
type PeerState string

const (
	StateDiscovered PeerState = "discovered"
	StateConnected  PeerState = "connected"
	StateStale      PeerState = "stale"
)

// staleFailureThreshold is the number of consecutive heartbeat failures
// that demotes a peer to STALE.
const staleFailureThreshold = 2

// staleTimeout is how long a peer may go without fresh evidence before the
// next scan marks it STALE regardless of heartbeat outcome.
const staleTimeout = 120 * time.Second

// PeerInfo is a known peer on the network.
type PeerInfo struct {
	IdentityHash      string
	Host              string
	Port              int
	NodeType          NodeType
	State             PeerState
	LastSeen          time.Time
	RecordsExchanged  int
	PublicKey         []byte
	HeartbeatFailures int
	LatencyMillis     float64
}

// Address returns the peer's dial target.
func (p *PeerInfo) Address() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// touch records fresh inbound evidence: any successful RPC moves a peer
// out of STALE and resets its failure count.
func (p *PeerInfo) touch(now time.Time) {
	p.LastSeen = now
	p.HeartbeatFailures = 0
	if p.State != StateConnected {
		p.State = StateConnected
	}
}

// recordFailure increments the heartbeat-failure count and demotes the
// peer to STALE once it reaches staleFailureThreshold.
func (p *PeerInfo) recordFailure() {
	p.HeartbeatFailures++
	if p.HeartbeatFailures >= staleFailureThreshold {
		p.State = StateStale
	}
}

// PeerTable is the discovery component's owned registry of known peers,
// keyed by identity hash.
type PeerTable struct {
	mu    sync.RWMutex
	peers map[string]*PeerInfo
	self  string
}

// NewPeerTable builds an empty table; selfIdentityHash is excluded from
// every ingestion path so a node never adds itself as a peer.
func NewPeerTable(selfIdentityHash string) *PeerTable {
	return &PeerTable{
		peers: make(map[string]*PeerInfo),
		self:  selfIdentityHash,
	}
}

// Upsert adds a newly discovered peer or refreshes an existing one's
// address/type, leaving state and counters untouched on refresh.
func (t *PeerTable) Upsert(identityHash, host string, port int, nodeType NodeType) *PeerInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	if identityHash == t.self {
		return nil
	}
	if p, ok := t.peers[identityHash]; ok {
		p.Host = host
		p.Port = port
		p.NodeType = nodeType
		return p
	}
	p := &PeerInfo{
		IdentityHash: identityHash,
		Host:         host,
		Port:         port,
		NodeType:     nodeType,
		State:        StateDiscovered,
		LastSeen:     time.Now(),
	}
	t.peers[identityHash] = p
	return p
}

// Get returns the peer with the given identity hash, if known.
func (t *PeerTable) Get(identityHash string) (*PeerInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[identityHash]
	return p, ok
}

// All returns every known peer.
func (t *PeerTable) All() []*PeerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*PeerInfo, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, p)
	}
	return out
}

// Len returns the number of known peers.
func (t *PeerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// ScanStale marks every peer whose LastSeen predates staleTimeout as
// STALE, returning the identity hashes that transitioned.
func (t *PeerTable) ScanStale(now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var transitioned []string
	for hash, p := range t.peers {
		if p.State == StateStale {
			continue
		}
		if now.Sub(p.LastSeen) > staleTimeout {
			p.State = StateStale
			transitioned = append(transitioned, hash)
		}
	}
	return transitioned
}

// Pinger is the subset of NetworkClient that HeartbeatOnce needs; defined
// here (rather than importing the client package) so peer.go has no
// dependency on the HTTP transport, only on the capability of pinging one.
type Pinger interface {
	Ping(host string, port int) error
}

// HeartbeatOnce pings every non-self, non-removed peer exactly once. A
// successful ping transitions DISCOVERED/STALE to CONNECTED and resets the
// failure counter; a failed ping increments the counter and demotes the
// peer to STALE once the threshold is reached.
func HeartbeatOnce(table *PeerTable, client Pinger) {
	now := time.Now()
	for _, p := range table.All() {
		err := client.Ping(p.Host, p.Port)

		table.mu.Lock()
		if err == nil {
			p.touch(now)
		} else {
			p.recordFailure()
		}
		table.mu.Unlock()
	}
}
