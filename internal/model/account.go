package model

// Account - VPN 사용자 계정 (CRUD 외부 컴포넌트 소유, 파이프라인은 읽기만 함)
// PeerIdentity는 WireGuard public key
type Account struct {
	ID           int64  `json:"id"`
	Label        string `json:"label"`
	PeerIdentity string `json:"peer_identity"`
	IsActive     bool   `json:"is_active"`
}
