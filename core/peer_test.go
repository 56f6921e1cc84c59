package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type flakyPinger struct{ fail bool }

func (p *flakyPinger) Ping(host string, port int) error {
	if p.fail {
		return errors.New("connection refused")
	}
	return nil
}

func TestPeerStaleAfterTwoHeartbeatFailures(t *testing.T) {
	table := NewPeerTable("self")
	peer := table.Upsert("peerA", "127.0.0.1", 9999, NodeLeaf)
	require.NotNil(t, peer)
	require.Equal(t, StateDiscovered, peer.State)

	pinger := &flakyPinger{fail: true}

	HeartbeatOnce(table, pinger)
	require.Equal(t, 1, peer.HeartbeatFailures)
	require.NotEqual(t, StateStale, peer.State)

	HeartbeatOnce(table, pinger)
	require.GreaterOrEqual(t, peer.HeartbeatFailures, 2)
	require.Equal(t, StateStale, peer.State)
}

func TestPeerReconnectsOnSuccessfulHeartbeat(t *testing.T) {
	table := NewPeerTable("self")
	peer := table.Upsert("peerA", "127.0.0.1", 9999, NodeLeaf)

	flaky := &flakyPinger{fail: true}
	HeartbeatOnce(table, flaky)
	HeartbeatOnce(table, flaky)
	require.Equal(t, StateStale, peer.State)

	flaky.fail = false
	HeartbeatOnce(table, flaky)
	require.Equal(t, StateConnected, peer.State)
	require.Equal(t, 0, peer.HeartbeatFailures)
}

func TestPeerTableExcludesSelf(t *testing.T) {
	table := NewPeerTable("self-hash")
	got := table.Upsert("self-hash", "127.0.0.1", 1234, NodeLeaf)
	require.Nil(t, got)
	require.Equal(t, 0, table.Len())
}

func TestParseNodeType(t *testing.T) {
	require.Equal(t, NodeRelay, ParseNodeType("relay"))
	require.Equal(t, NodeWitness, ParseNodeType("witness"))
	require.Equal(t, NodeLeaf, ParseNodeType("unknown"))
}
