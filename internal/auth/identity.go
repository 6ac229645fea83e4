package auth

// Strategy names the authorization path taken for an identity.
type Strategy string

// Strategies in priority order.
const (
	StrategySuper Strategy = "super"
	StrategyOwner Strategy = "owner"
	StrategyRole  Strategy = "role"
)

// Identity is the authenticated actor of a request.
// It is resolved upstream (session lookup) before the engine runs.
type Identity struct {
	UserID   uint64 `json:"userId"`
	TenantID uint   `json:"tenantId"`
	IsSuper  bool   `json:"isSuper"`
	IsOwner  bool   `json:"isOwner"`
	RoleIDs  []uint `json:"roleIds"`
}

// Strategy returns the single strategy applying to the identity.
func (i Identity) Strategy() Strategy {
	switch {
	case i.IsSuper:
		return StrategySuper
	case i.IsOwner:
		return StrategyOwner
	default:
		return StrategyRole
	}
}
