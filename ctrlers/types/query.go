package types

const (
	DefaultPageLimit = uint32(10)
	MaxPageLimit     = uint32(100)
)

// PageRequest is offset based pagination for list queries.
type PageRequest struct {
	Offset uint32 `json:"offset,omitempty"`
	Limit  uint32 `json:"limit,omitempty"`
}

func (p *PageRequest) Normalize() (uint32, uint32) {
	if p == nil {
		return 0, DefaultPageLimit
	}
	limit := p.Limit
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return p.Offset, limit
}
