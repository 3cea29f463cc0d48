package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window. Volumes
// count the input side of each swap; fees are charged on the input side.
type PoolWindowMetrics struct {
	PoolAddress    string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	DepositCount   uint64
	WithdrawCount  uint64
	VolumeA        string
	VolumeB        string
	LPFeeA         string
	LPFeeB         string
	DAOFeeA        string
	DAOFeeB        string
	CreatorFeeA    string
	CreatorFeeB    string
	FeeRateA       *string
	FeeRateB       *string
	TVLA           string
	TVLB           string
	LPSupply       uint64
	APR            *string
}
