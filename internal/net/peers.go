package net

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"LiveChartBoard/internal/broadcast"
	"LiveChartBoard/internal/metrics"
)

// peerSendBuffer is the number of frames queued for a slow peer before frames
// start being dropped.
const peerSendBuffer = 256

// Peer is one websocket client of the relay.
type Peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	// subscription keys, guarded by PeerManager.mu
	subs map[string]struct{}
}

func NewPeer(id string, conn *websocket.Conn) *Peer {
	return &Peer{
		id:   id,
		conn: conn,
		send: make(chan []byte, peerSendBuffer),
		subs: make(map[string]struct{}),
	}
}

func (p *Peer) ID() string { return p.id }

// PeerManager tracks the relay clients and their subscriptions.
type PeerManager struct {
	peers map[string]*Peer
	mu    sync.RWMutex
}

func NewPeerManager() *PeerManager {
	return &PeerManager{
		peers: make(map[string]*Peer),
	}
}

// Add registers a peer that just connected.
func (pm *PeerManager) Add(peer *Peer) {
	pm.mu.Lock()
	pm.peers[peer.id] = peer
	n := len(pm.peers)
	pm.mu.Unlock()

	metrics.RelayConnections.Set(float64(n))
	logger.WithField("peer", peer.id).Infof("peer connected (%d online)", n)
}

// Remove drops a peer and closes its send queue. It is safe to call twice.
func (pm *PeerManager) Remove(peer *Peer) {
	pm.mu.Lock()
	if _, ok := pm.peers[peer.id]; !ok {
		pm.mu.Unlock()
		return
	}
	delete(pm.peers, peer.id)
	close(peer.send)
	n := len(pm.peers)
	pm.mu.Unlock()

	metrics.RelayConnections.Set(float64(n))
	logger.WithField("peer", peer.id).Infof("peer disconnected (%d online)", n)
}

func (pm *PeerManager) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

func (pm *PeerManager) Subscribe(peer *Peer, key string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	peer.subs[key] = struct{}{}
}

func (pm *PeerManager) Unsubscribe(peer *Peer, key string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(peer.subs, key)
}

// Subscribers returns the number of peers subscribed to key.
func (pm *PeerManager) Subscribers(key string) int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	n := 0
	for _, peer := range pm.peers {
		if _, ok := peer.subs[key]; ok {
			n++
		}
	}
	return n
}

// Broadcast queues msg for every peer subscribed to its key except the sender.
// A peer whose queue is full misses the frame. It returns the number of peers
// the frame was queued for.
func (pm *PeerManager) Broadcast(msg broadcast.Message, exclude *Peer) int {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.WithError(err).Error("unable to encode relay frame")
		return 0
	}

	key := msg.Key()
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	sent := 0
	for _, peer := range pm.peers {
		if peer == exclude {
			continue
		}
		if _, ok := peer.subs[key]; !ok {
			continue
		}
		select {
		case peer.send <- data:
			sent++
		default:
			logger.WithField("peer", peer.id).Warnf("send queue full, dropping %s", msg.Event)
		}
	}
	return sent
}
