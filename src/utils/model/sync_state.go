package model

type SyncedComponent string

const (
	SyncedComponentLedgerStore SyncedComponent = "ledger_store"
)

const (
	TableSyncState = "market_sync_state"
)

type SyncState struct {
	// Component name, primary key
	Name SyncedComponent `gorm:"primaryKey"`

	// Sequence number of the last event fully persisted by the component
	LastEventSequence uint64

	// Aggregate counters mirrored from the ledger at flush time
	TotalOffers    uint64
	TotalPurchases uint64
	TotalVolume    uint64
	ActiveOffers   uint64
}

func (SyncState) TableName() string {
	return TableSyncState
}
