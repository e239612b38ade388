package request

type UpdateFee struct {
	Caller         string `json:"caller" binding:"required"`
	FeeBasisPoints uint64 `json:"fee_basis_points"`
}

type UpdateTreasury struct {
	Caller   string `json:"caller" binding:"required"`
	Treasury string `json:"treasury" binding:"required"`
}

type EmergencyWithdraw struct {
	Caller string `json:"caller" binding:"required"`
}
