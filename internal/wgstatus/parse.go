package wgstatus

import (
	"errors"
	"strings"

	"github.com/wellybot/wgvpn-admin/internal/units"
)

// ErrParse - wg 출력 파싱 실패 (유효한 peer 0개 포함)
var ErrParse = errors.New("wg status parse failure")

const peerDelimiter = "peer:"

// Peer - `wg show` 출력의 peer 블록 하나
type Peer struct {
	PublicKey       string
	Endpoint        string
	AllowedIPs      string
	LatestHandshake string
	BytesReceived   uint64
	BytesSent       uint64
}

// Parse splits human-readable `wg show` output into peer blocks.
// Blocks without a public key are dropped. A block without a transfer line
// reports zero counters, which is what wg does before the first handshake.
func Parse(out string) []Peer {
	var peers []Peer
	blocks := splitBlocks(out)
	for _, block := range blocks {
		peer, ok := parseBlock(block)
		if !ok {
			continue
		}
		peers = append(peers, peer)
	}
	return peers
}

// splitBlocks returns everything after each "peer:" token, one entry per peer.
func splitBlocks(out string) []string {
	var blocks []string
	var cur *strings.Builder
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, peerDelimiter) {
			if cur != nil {
				blocks = append(blocks, cur.String())
			}
			cur = &strings.Builder{}
			cur.WriteString(trimmed)
			cur.WriteString("\n")
			continue
		}
		// 다음 interface 블록이 시작되면 현재 peer 블록 종료
		if strings.HasPrefix(trimmed, "interface:") {
			if cur != nil {
				blocks = append(blocks, cur.String())
			}
			cur = nil
			continue
		}
		if cur != nil {
			cur.WriteString(trimmed)
			cur.WriteString("\n")
		}
	}
	if cur != nil {
		blocks = append(blocks, cur.String())
	}
	return blocks
}

func parseBlock(block string) (Peer, bool) {
	var peer Peer
	lines := strings.Split(block, "\n")
	if len(lines) == 0 {
		return peer, false
	}
	peer.PublicKey = strings.TrimSpace(strings.TrimPrefix(lines[0], peerDelimiter))
	if peer.PublicKey == "" || strings.ContainsAny(peer.PublicKey, " \t") {
		return Peer{}, false
	}

	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "endpoint":
			peer.Endpoint = value
		case "allowed ips":
			peer.AllowedIPs = value
		case "latest handshake":
			peer.LatestHandshake = value
		case "transfer":
			rx, tx, ok := parseTransfer(value)
			if !ok {
				return Peer{}, false
			}
			peer.BytesReceived = rx
			peer.BytesSent = tx
		}
	}
	return peer, true
}

// parseTransfer parses "1.23 MiB received, 4.56 KiB sent".
func parseTransfer(value string) (rx, tx uint64, ok bool) {
	recvPart, sentPart, found := strings.Cut(value, ",")
	if !found {
		return 0, 0, false
	}
	recvPart = strings.TrimSpace(recvPart)
	sentPart = strings.TrimSpace(sentPart)
	if !strings.HasSuffix(recvPart, " received") || !strings.HasSuffix(sentPart, " sent") {
		return 0, 0, false
	}

	rx, err := units.ParseMeasurement(strings.TrimSuffix(recvPart, " received"))
	if err != nil {
		return 0, 0, false
	}
	tx, err = units.ParseMeasurement(strings.TrimSuffix(sentPart, " sent"))
	if err != nil {
		return 0, 0, false
	}
	return rx, tx, true
}
