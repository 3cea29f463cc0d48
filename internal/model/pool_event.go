package model

import "encoding/json"

// PoolEvent is the JSON representation of a committed pool operation,
// carrying the pool balances and LP supply after the operation.
type PoolEvent struct {
	Seq        uint64 `json:"seq"`
	Slot       uint64 `json:"slot"`
	Timestamp  uint64 `json:"timestamp"`
	Op         string `json:"op"`
	Pool       string `json:"pool"`
	Owner      string `json:"owner"`
	InSide     string `json:"in_side,omitempty"`
	AmountIn   uint64 `json:"amount_in,omitempty"`
	AmountOut  uint64 `json:"amount_out,omitempty"`
	AmountA    uint64 `json:"amount_a,omitempty"`
	AmountB    uint64 `json:"amount_b,omitempty"`
	LPAmount   uint64 `json:"lp_amount,omitempty"`
	DAOFee     uint64 `json:"dao_fee,omitempty"`
	LPFee      uint64 `json:"lp_fee,omitempty"`
	CreatorFee uint64 `json:"creator_fee,omitempty"`
	BalanceA   uint64 `json:"balance_a"`
	BalanceB   uint64 `json:"balance_b"`
	LPSupply   uint64 `json:"lp_supply"`
}

// MarshalJSON ensures PoolEvent is encoded with stable field names.
func (e PoolEvent) MarshalJSON() ([]byte, error) {
	type Alias PoolEvent
	return json.Marshal(Alias(e))
}

// UnmarshalJSON decodes a PoolEvent from JSON.
func (e *PoolEvent) UnmarshalJSON(data []byte) error {
	type Alias PoolEvent
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = PoolEvent(a)
	return nil
}
