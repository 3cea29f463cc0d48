package model

// Pool is a pool metadata record for storage.
type Pool struct {
	Address        string `json:"address"`
	Seed           string `json:"seed"`
	MintA          string `json:"mint_a"`
	MintB          string `json:"mint_b"`
	VaultA         string `json:"vault_a"`
	VaultB         string `json:"vault_b"`
	LPMint         string `json:"lp_mint"`
	LPFeeRate      uint32 `json:"lp_fee_rate"`
	CreatorFeeRate uint32 `json:"creator_fee_rate"`
	FirstSeenSeq   uint64 `json:"first_seen_seq"`
}
