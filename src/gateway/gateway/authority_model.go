package gateway

import (
	"github.com/fomc-rates/treasury-gate/src/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	AuthorityTableNamePrefix = `authority_key`
	authorityRowID           = 1
)

type (
	AuthorityModel interface {
		CreateAuthorityTable() error
		DropAuthorityTable() error
		UpsertKey(admin string, keyHex string) error
		GetKey() (key *AuthorityKey, err error)
	}

	defaultAuthorityModel struct {
		table string
		DB    *gorm.DB
	}

	// AuthorityKey is the single persisted authority config row.
	AuthorityKey struct {
		gorm.Model
		Admin           string
		VerificationKey string
	}
)

func NewAuthorityModel(db *gorm.DB, suffix string) AuthorityModel {
	return &defaultAuthorityModel{
		table: AuthorityTableNamePrefix + suffix,
		DB:    db,
	}
}

func (m *defaultAuthorityModel) CreateAuthorityTable() error {
	return m.DB.Table(m.table).AutoMigrate(AuthorityKey{})
}

func (m *defaultAuthorityModel) DropAuthorityTable() error {
	return m.DB.Migrator().DropTable(m.table)
}

func (m *defaultAuthorityModel) UpsertKey(admin string, keyHex string) error {
	row := AuthorityKey{Admin: admin, VerificationKey: keyHex}
	row.ID = authorityRowID
	dbTx := m.DB.Table(m.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"admin", "verification_key", "updated_at"}),
	}).Create(&row)
	return utils.ConvertMysqlErrToDbErr(dbTx.Error)
}

func (m *defaultAuthorityModel) GetKey() (key *AuthorityKey, err error) {
	dbTx := m.DB.Table(m.table).Where("id = ?", authorityRowID).Limit(1).Find(&key)
	if dbTx.Error != nil {
		return nil, utils.ConvertMysqlErrToDbErr(dbTx.Error)
	} else if dbTx.RowsAffected == 0 {
		return nil, utils.DbErrNotFound
	}
	return key, nil
}
