package gateway

import (
	"github.com/fomc-rates/treasury-gate/src/utils"

	"gorm.io/gorm"
)

const (
	EventTableNamePrefix = `movement_event`
)

type (
	EventModel interface {
		CreateEventTable() error
		DropEventTable() error
		CreateEvent(event *MovementEventRow) error
		GetEvents(offset int, limit int) (events []MovementEventRow, err error)
	}

	defaultEventModel struct {
		table string
		DB    *gorm.DB
	}

	// MovementEventRow archives an accepted movement and the audit root after it.
	MovementEventRow struct {
		gorm.Model
		Seq       uint64 `gorm:"index:idx_seq,unique"`
		Magnitude uint64
		Increase  bool
		Timestamp uint64
		Account   string
		AmountIn  uint64
		AmountOut uint64
		LeafHash  string
		AuditRoot string
	}
)

func NewEventModel(db *gorm.DB, suffix string) EventModel {
	return &defaultEventModel{
		table: EventTableNamePrefix + suffix,
		DB:    db,
	}
}

func (m *defaultEventModel) CreateEventTable() error {
	return m.DB.Table(m.table).AutoMigrate(MovementEventRow{})
}

func (m *defaultEventModel) DropEventTable() error {
	return m.DB.Migrator().DropTable(m.table)
}

func (m *defaultEventModel) CreateEvent(event *MovementEventRow) error {
	dbTx := m.DB.Table(m.table).Create(event)
	return utils.ConvertMysqlErrToDbErr(dbTx.Error)
}

func (m *defaultEventModel) GetEvents(offset int, limit int) (events []MovementEventRow, err error) {
	dbTx := m.DB.Table(m.table).Order("seq asc").Offset(offset).Limit(limit).Find(&events)
	if dbTx.Error != nil {
		return nil, utils.ConvertMysqlErrToDbErr(dbTx.Error)
	} else if dbTx.RowsAffected == 0 {
		return nil, utils.DbErrNotFound
	}
	return events, nil
}
