package domain

// Principal is the caller a query or mutation runs on behalf of.
type Principal struct {
	UserID     string   `json:"userId"`
	TenantID   string   `json:"tenantId"`
	Clearances []string `json:"clearances"`
}

// CanSee applies the clearance rule to p.
func (p Principal) CanSee(policy Policy) bool { return policy.VisibleTo(p.Clearances) }
