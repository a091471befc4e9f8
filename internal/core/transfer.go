package core

// TransferDirection filters transfers by the side an account is on.
type TransferDirection string

const (
	DirectionFrom TransferDirection = "from"
	DirectionTo   TransferDirection = "to"
	DirectionBoth TransferDirection = "both"
)

func (d TransferDirection) IsValid() bool {
	return d == DirectionFrom || d == DirectionTo || d == DirectionBoth
}

// Touches reports whether tr involves accountID on side d.
func (d TransferDirection) Touches(tr Transfer, accountID int64) bool {
	switch d {
	case DirectionFrom:
		return tr.FromAccountID == accountID
	case DirectionTo:
		return tr.ToAccountID == accountID
	default:
		return tr.FromAccountID == accountID || tr.ToAccountID == accountID
	}
}
