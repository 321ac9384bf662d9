// Package podtest provides fake backend pods for testing discovery, health
// checking, and request relaying. Each pod is an httptest server that answers
// the identity probe endpoint and echoes proxied traffic back to the caller.
package podtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Pod is a fake backend pod. It serves the identity endpoint used by probes,
// an echo endpoint for HTTP relay tests, and a websocket echo endpoint.
type Pod struct {
	server *httptest.Server

	mu             sync.Mutex
	podID          string
	identityStatus int
	identityDelay  time.Duration
	rawIdentity    string
	probeCount     int
	requestCount   int
	lastHost       string
	lastPath       string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StartPod starts a fake pod that reports the given identity.
// The pod listens on a random loopback port until Close is called.
func StartPod(podID string) *Pod {
	p := &Pod{
		podID:          podID,
		identityStatus: http.StatusOK,
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.handler))
	return p
}

// Addr returns the pod's listen address.
func (p *Pod) Addr() netip.AddrPort {
	return netip.MustParseAddrPort(p.server.Listener.Addr().String())
}

// URL returns the pod's base URL.
func (p *Pod) URL() string {
	return p.server.URL
}

// Close shuts the pod down.
func (p *Pod) Close() {
	p.server.Close()
}

// SetPodID changes the identity the pod reports on subsequent probes.
func (p *Pod) SetPodID(podID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.podID = podID
}

// SetIdentityStatus overrides the status code of the identity endpoint.
func (p *Pod) SetIdentityStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identityStatus = status
}

// SetIdentityDelay makes the identity endpoint sleep before answering,
// for probe timeout tests.
func (p *Pod) SetIdentityDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identityDelay = d
}

// SetRawIdentity overrides the identity response body with arbitrary bytes,
// for malformed and non-string payload tests.
func (p *Pod) SetRawIdentity(body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rawIdentity = body
}

// ProbeCount returns how many identity probes the pod has answered.
func (p *Pod) ProbeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probeCount
}

// RequestCount returns how many non-probe requests the pod has served.
func (p *Pod) RequestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestCount
}

// LastHost returns the Host header of the most recent non-probe request.
func (p *Pod) LastHost() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHost
}

// LastPath returns the path of the most recent non-probe request.
func (p *Pod) LastPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPath
}

func (p *Pod) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/podid" {
		p.handleIdentity(w, r)
		return
	}

	p.mu.Lock()
	p.requestCount++
	p.lastHost = r.Host
	p.lastPath = r.URL.Path
	podID := p.podID
	p.mu.Unlock()

	if r.URL.Path == "/ws" || websocket.IsWebSocketUpgrade(r) {
		p.handleWebSocket(w, r)
		return
	}

	// Echo everything else so relay tests can assert what arrived.
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Pod-Id", podID)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"podId":  podID,
		"method": r.Method,
		"path":   r.URL.Path,
		"query":  r.URL.RawQuery,
		"host":   r.Host,
	})
}

func (p *Pod) handleIdentity(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.probeCount++
	status := p.identityStatus
	delay := p.identityDelay
	raw := p.rawIdentity
	podID := p.podID
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json")
	if raw != "" {
		w.WriteHeader(status)
		fmt.Fprint(w, raw)
		return
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"podId": podID})
}

func (p *Pod) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(messageType, message); err != nil {
			return
		}
	}
}

// Fleet is a set of fake pods sharing a lifecycle.
type Fleet struct {
	Pods []*Pod
}

// StartFleet starts one pod per identity.
func StartFleet(podIDs ...string) *Fleet {
	f := &Fleet{}
	for _, id := range podIDs {
		f.Pods = append(f.Pods, StartPod(id))
	}
	return f
}

// Addrs returns every pod's listen address, in start order.
func (f *Fleet) Addrs() []netip.AddrPort {
	addrs := make([]netip.AddrPort, 0, len(f.Pods))
	for _, p := range f.Pods {
		addrs = append(addrs, p.Addr())
	}
	return addrs
}

// Close shuts down every pod in the fleet.
func (f *Fleet) Close() {
	for _, p := range f.Pods {
		p.Close()
	}
}
