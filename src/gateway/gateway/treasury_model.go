package gateway

import (
	"github.com/fomc-rates/treasury-gate/src/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PoolTableNamePrefix     = `treasury_pool`
	BalanceTableNamePrefix  = `treasury_balance`
	NotionalTableNamePrefix = `treasury_notional`
)

type (
	TreasuryModel interface {
		CreateTreasuryTables() error
		DropTreasuryTables() error
		SaveTreasury(snapshot *TreasurySnapshot) error
		GetTreasury() (snapshot *TreasurySnapshot, err error)
	}

	defaultTreasuryModel struct {
		poolTable     string
		balanceTable  string
		notionalTable string
		DB            *gorm.DB
	}

	// PoolRow is one venue pool and its reserves.
	PoolRow struct {
		gorm.Model
		AssetX   string `gorm:"size:191;index:idx_pool,unique"`
		AssetY   string `gorm:"size:191;index:idx_pool,unique"`
		Curve    string `gorm:"size:64;index:idx_pool,unique"`
		ReserveX uint64
		ReserveY uint64
		FeeBps   uint64
	}

	// BalanceRow is one account's venue store for one asset.
	BalanceRow struct {
		gorm.Model
		Account string `gorm:"size:191;index:idx_store,unique"`
		Asset   string `gorm:"size:191;index:idx_store,unique"`
		Amount  uint64
	}

	// NotionalRow is one account's notional pair of balances.
	NotionalRow struct {
		gorm.Model
		Account  string `gorm:"size:191;index:idx_account,unique"`
		BalanceA uint64
		BalanceB uint64
	}

	TreasurySnapshot struct {
		Pools    []PoolRow
		Balances []BalanceRow
		Notional []NotionalRow
	}
)

func NewTreasuryModel(db *gorm.DB, suffix string) TreasuryModel {
	return &defaultTreasuryModel{
		poolTable:     PoolTableNamePrefix + suffix,
		balanceTable:  BalanceTableNamePrefix + suffix,
		notionalTable: NotionalTableNamePrefix + suffix,
		DB:            db,
	}
}

func (m *defaultTreasuryModel) CreateTreasuryTables() error {
	if err := m.DB.Table(m.poolTable).AutoMigrate(PoolRow{}); err != nil {
		return err
	}
	if err := m.DB.Table(m.balanceTable).AutoMigrate(BalanceRow{}); err != nil {
		return err
	}
	return m.DB.Table(m.notionalTable).AutoMigrate(NotionalRow{})
}

func (m *defaultTreasuryModel) DropTreasuryTables() error {
	return m.DB.Migrator().DropTable(m.poolTable, m.balanceTable, m.notionalTable)
}

// SaveTreasury upserts every row of the snapshot on its natural key.
func (m *defaultTreasuryModel) SaveTreasury(snapshot *TreasurySnapshot) error {
	if len(snapshot.Pools) > 0 {
		dbTx := m.DB.Table(m.poolTable).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_x"}, {Name: "asset_y"}, {Name: "curve"}},
			DoUpdates: clause.AssignmentColumns([]string{"reserve_x", "reserve_y", "fee_bps", "updated_at"}),
		}).Create(&snapshot.Pools)
		if dbTx.Error != nil {
			return utils.ConvertMysqlErrToDbErr(dbTx.Error)
		}
	}
	if len(snapshot.Balances) > 0 {
		dbTx := m.DB.Table(m.balanceTable).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account"}, {Name: "asset"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).Create(&snapshot.Balances)
		if dbTx.Error != nil {
			return utils.ConvertMysqlErrToDbErr(dbTx.Error)
		}
	}
	if len(snapshot.Notional) > 0 {
		dbTx := m.DB.Table(m.notionalTable).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance_a", "balance_b", "updated_at"}),
		}).Create(&snapshot.Notional)
		if dbTx.Error != nil {
			return utils.ConvertMysqlErrToDbErr(dbTx.Error)
		}
	}
	return nil
}

// GetTreasury returns DbErrNotFound until the first snapshot is saved.
func (m *defaultTreasuryModel) GetTreasury() (snapshot *TreasurySnapshot, err error) {
	snapshot = &TreasurySnapshot{}
	var rows int64
	for _, q := range []struct {
		table string
		dest  interface{}
	}{
		{m.poolTable, &snapshot.Pools},
		{m.balanceTable, &snapshot.Balances},
		{m.notionalTable, &snapshot.Notional},
	} {
		dbTx := m.DB.Table(q.table).Order("id asc").Find(q.dest)
		if dbTx.Error != nil {
			return nil, utils.ConvertMysqlErrToDbErr(dbTx.Error)
		}
		rows += dbTx.RowsAffected
	}
	if rows == 0 {
		return nil, utils.DbErrNotFound
	}
	return snapshot, nil
}
