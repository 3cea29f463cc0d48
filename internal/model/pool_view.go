package model

// PoolView is the rendered state of a pool as printed by `pool info`.
// Vault amounts are the raw custodial balances; they exceed the pool
// balances by the dao fee dust.
type PoolView struct {
	Address      string `json:"address"`
	Seed         string `json:"seed"`
	MintA        string `json:"mint_a"`
	MintB        string `json:"mint_b"`
	VaultA       string `json:"vault_a"`
	VaultB       string `json:"vault_b"`
	LPMint       string `json:"lp_mint"`
	BalanceA     uint64 `json:"balance_a"`
	BalanceB     uint64 `json:"balance_b"`
	BalanceAUI   string `json:"balance_a_ui"`
	BalanceBUI   string `json:"balance_b_ui"`
	VaultAmountA uint64 `json:"vault_amount_a"`
	VaultAmountB uint64 `json:"vault_amount_b"`
	LPSupply     uint64 `json:"lp_supply"`
	LPFeeRate    uint32 `json:"lp_fee_rate"`
	DAOFeeRate   uint32 `json:"dao_fee_rate"`
	// Price of one A in B, empty for an empty pool.
	SpotPrice  string          `json:"spot_price,omitempty"`
	CreatorFee *CreatorFeeView `json:"creator_fee,omitempty"`
}

// CreatorFeeView is the creator fee section of a PoolView.
type CreatorFeeView struct {
	Rate              uint32 `json:"rate"`
	BalanceA          uint64 `json:"balance_a"`
	BalanceB          uint64 `json:"balance_b"`
	WithdrawAuthority string `json:"withdraw_authority"`
}
