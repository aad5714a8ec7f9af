package gateway

import (
	"time"

	"github.com/fomc-rates/treasury-gate/src/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StatusPending = iota
	StatusProcessing
	StatusAccepted
	StatusRejected
)

const (
	RequestTableNamePrefix = `movement_request`
)

type (
	RequestModel interface {
		CreateRequestTable() error
		DropRequestTable() error
		CreateRequests(requests []MovementRequest) error
		GetAndUpdateRequestsByStatus(beforeStatus, afterStatus int64, count int32) (requests []*MovementRequest, err error)
		GetRequestsByStatus(status int64, count int32) (requests []*MovementRequest, err error)
		UpdateRequestResult(request *MovementRequest) error
		GetRowCounts() (counts []int64, err error)
	}

	defaultRequestModel struct {
		table string
		DB    *gorm.DB
	}

	// MovementRequest is one attested claim waiting to be applied.
	MovementRequest struct {
		gorm.Model
		Account   string `gorm:"index"`
		Magnitude uint64
		Increase  bool
		Signature string
		Notional  bool
		Status    int64 `gorm:"index"`
		AbortCode string
		EventSeq  int64
		AmountIn  uint64
		AmountOut uint64
	}
)

func NewRequestModel(db *gorm.DB, suffix string) RequestModel {
	return &defaultRequestModel{
		table: RequestTableNamePrefix + suffix,
		DB:    db,
	}
}

func (m *defaultRequestModel) TableName() string {
	return m.table
}

func (m *defaultRequestModel) CreateRequestTable() error {
	return m.DB.Table(m.table).AutoMigrate(MovementRequest{})
}

func (m *defaultRequestModel) DropRequestTable() error {
	return m.DB.Migrator().DropTable(m.table)
}

func (m *defaultRequestModel) CreateRequests(requests []MovementRequest) error {
	for i := range requests {
		requests[i].Status = StatusPending
		requests[i].EventSeq = -1
	}
	dbTx := m.DB.Table(m.table).Create(requests)
	if dbTx.Error != nil {
		return utils.ConvertMysqlErrToDbErr(dbTx.Error)
	}
	return nil
}

// GetAndUpdateRequestsByStatus claims up to count requests in id order,
// moving them from beforeStatus to afterStatus in one transaction.
func (m *defaultRequestModel) GetAndUpdateRequestsByStatus(beforeStatus, afterStatus int64, count int32) (requests []*MovementRequest, err error) {
	err = m.DB.Table(m.table).Transaction(func(tx *gorm.DB) error {
		dbTx := tx.Table(m.table).Where("status = ?", beforeStatus).Order("id asc").Limit(int(count)).Clauses(clause.Locking{Strength: "UPDATE"}).Find(&requests)
		if dbTx.Error != nil {
			return utils.ConvertMysqlErrToDbErr(dbTx.Error)
		} else if dbTx.RowsAffected == 0 {
			return utils.DbErrNotFound
		}

		ids := make([]uint, 0, len(requests))
		for _, r := range requests {
			ids = append(ids, r.ID)
			r.Status = afterStatus
		}
		dbTx = tx.Table(m.table).Where("id IN ?", ids).Updates(map[string]interface{}{"status": afterStatus})
		return dbTx.Error
	})
	return requests, err
}

func (m *defaultRequestModel) GetRequestsByStatus(status int64, count int32) (requests []*MovementRequest, err error) {
	dbTx := m.DB.Table(m.table).Where("status = ?", status).Order("id asc").Limit(int(count)).Find(&requests)
	if dbTx.Error != nil {
		return nil, utils.ConvertMysqlErrToDbErr(dbTx.Error)
	} else if dbTx.RowsAffected == 0 {
		return nil, utils.DbErrNotFound
	}
	return requests, nil
}

func (m *defaultRequestModel) UpdateRequestResult(request *MovementRequest) error {
	dbTx := m.DB.Table(m.table).Where("id = ?", request.ID).Updates(map[string]interface{}{
		"updated_at": time.Now(),
		"status":     request.Status,
		"abort_code": request.AbortCode,
		"event_seq":  request.EventSeq,
		"amount_in":  request.AmountIn,
		"amount_out": request.AmountOut,
	})
	return utils.ConvertMysqlErrToDbErr(dbTx.Error)
}

// GetRowCounts returns total, pending, processing, accepted and rejected counts.
func (m *defaultRequestModel) GetRowCounts() (counts []int64, err error) {
	var count int64
	dbTx := m.DB.Table(m.table).Count(&count)
	if dbTx.Error != nil {
		return nil, utils.ConvertMysqlErrToDbErr(dbTx.Error)
	}
	counts = append(counts, count)
	for _, status := range []int64{StatusPending, StatusProcessing, StatusAccepted, StatusRejected} {
		var statusCount int64
		dbTx = m.DB.Table(m.table).Where("status = ?", status).Count(&statusCount)
		if dbTx.Error != nil {
			return nil, utils.ConvertMysqlErrToDbErr(dbTx.Error)
		}
		counts = append(counts, statusCount)
	}
	return counts, nil
}
