package gateway

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fomc-rates/treasury-gate/bls"
	"github.com/fomc-rates/treasury-gate/engine"
	"github.com/fomc-rates/treasury-gate/src/gateway/config"
	"github.com/fomc-rates/treasury-gate/src/utils"
	"github.com/fomc-rates/treasury-gate/venue"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const eventReplayPageSize = 1000

func WithRedis(redisType string, redisPass string) redis.Option {
	return func(p *redis.Redis) {
		p.Type = redisType
		p.Pass = redisPass
	}
}

type Gateway struct {
	db             *gorm.DB
	suffix         string
	requestModel   RequestModel
	authorityModel AuthorityModel
	eventModel     EventModel
	treasuryModel  TreasuryModel
	redisConn      *redis.Redis

	engine    *engine.Engine
	router    *venue.Router
	decimals  int32
	batchSize int32
}

func NewGateway(config *config.Config) *Gateway {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             60 * time.Second, // Slow SQL threshold
			LogLevel:                  logger.Silent,    // Log level
			IgnoreRecordNotFoundError: true,             // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,            // Disable color
		},
	)
	db, err := gorm.Open(mysql.Open(config.MysqlDataSource), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		panic(err.Error())
	}
	redisConn := redis.New(config.Redis.Host, WithRedis(config.Redis.Type, config.Redis.Password))

	g := &Gateway{
		db:             db,
		suffix:         config.DbSuffix,
		requestModel:   NewRequestModel(db, config.DbSuffix),
		authorityModel: NewAuthorityModel(db, config.DbSuffix),
		eventModel:     NewEventModel(db, config.DbSuffix),
		treasuryModel:  NewTreasuryModel(db, config.DbSuffix),
		redisConn:      redisConn,
		decimals:       config.Decimals,
		batchSize:      config.BatchSize,
	}
	if err = g.createTables(); err != nil {
		panic(err.Error())
	}

	router, notional, err := LoadTreasury(g.treasuryModel, config)
	if err != nil {
		panic(err.Error())
	}
	auditTree, err := utils.NewAuditTree(config.AuditTree.Driver, config.AuditTree.Addr)
	if err != nil {
		panic(err.Error())
	}
	g.router = router
	g.engine = engine.NewEngine(engine.Config{
		Admin: engine.Address(config.Admin),
		Pair:  PairFromConfig(config),
	}, bls.Scheme{},
		engine.WithVenue(router),
		engine.WithNotionalLedger(notional),
		engine.WithAuditLedger(engine.NewAuditLedger(auditTree)),
	)
	if err = g.bootstrap(); err != nil {
		panic(err.Error())
	}
	return g
}

func PairFromConfig(config *config.Config) engine.AssetPair {
	return engine.AssetPair{
		A:     engine.Asset(config.Pair.A),
		B:     engine.Asset(config.Pair.B),
		Curve: engine.Curve(config.Pair.Curve),
	}
}

// NewRouterFromConfig builds the simulated venue: pools and funded accounts.
func NewRouterFromConfig(config *config.Config) (*venue.Router, error) {
	pair := PairFromConfig(config)
	multiplier := utils.DecimalsMultiplier(config.Decimals)
	router := venue.NewRouter()
	for _, p := range config.Pools {
		reserveA, err := utils.ConvertFloatStrToUint64(p.ReserveA, multiplier)
		if err != nil {
			return nil, fmt.Errorf("pool reserve %s: %w", p.ReserveA, err)
		}
		reserveB, err := utils.ConvertFloatStrToUint64(p.ReserveB, multiplier)
		if err != nil {
			return nil, fmt.Errorf("pool reserve %s: %w", p.ReserveB, err)
		}
		err = router.CreatePool(venue.PoolConfig{
			X:        pair.A,
			Y:        pair.B,
			Curve:    pair.Curve,
			ReserveX: reserveA,
			ReserveY: reserveB,
			FeeBps:   p.FeeBps,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, a := range config.Accounts {
		account := engine.Address(a.Address)
		for _, fund := range []struct {
			asset  engine.Asset
			amount string
		}{{pair.A, a.BalanceA}, {pair.B, a.BalanceB}} {
			amount, err := utils.ConvertFloatStrToUint64(fund.amount, multiplier)
			if err != nil {
				return nil, fmt.Errorf("balance of %s: %w", account, err)
			}
			if err = router.Register(account, fund.asset); err != nil {
				return nil, err
			}
			if err = router.Mint(account, fund.asset, amount); err != nil {
				return nil, err
			}
		}
	}
	return router, nil
}

// NewNotionalLedgerFromConfig seeds the notional ledger the same way
// NewRouterFromConfig funds venue accounts.
func NewNotionalLedgerFromConfig(config *config.Config) (*engine.NotionalLedger, error) {
	multiplier := utils.DecimalsMultiplier(config.Decimals)
	notional := engine.NewNotionalLedger()
	for _, a := range config.NotionalAccounts {
		balanceA, err := utils.ConvertFloatStrToUint64(a.BalanceA, multiplier)
		if err != nil {
			return nil, fmt.Errorf("notional balance of %s: %w", a.Address, err)
		}
		balanceB, err := utils.ConvertFloatStrToUint64(a.BalanceB, multiplier)
		if err != nil {
			return nil, fmt.Errorf("notional balance of %s: %w", a.Address, err)
		}
		notional.Seed(engine.Address(a.Address), balanceA, balanceB)
	}
	return notional, nil
}

// SnapshotTreasury captures venue pools, venue stores and notional balances.
func SnapshotTreasury(router *venue.Router, notional *engine.NotionalLedger) *TreasurySnapshot {
	snapshot := &TreasurySnapshot{}
	for _, p := range router.Pools() {
		snapshot.Pools = append(snapshot.Pools, PoolRow{
			AssetX:   string(p.X),
			AssetY:   string(p.Y),
			Curve:    string(p.Curve),
			ReserveX: p.ReserveX,
			ReserveY: p.ReserveY,
			FeeBps:   p.FeeBps,
		})
	}
	for _, b := range router.Balances() {
		snapshot.Balances = append(snapshot.Balances, BalanceRow{
			Account: string(b.Account),
			Asset:   string(b.Asset),
			Amount:  b.Amount,
		})
	}
	accounts := notional.Accounts()
	addresses := make([]string, 0, len(accounts))
	for a := range accounts {
		addresses = append(addresses, string(a))
	}
	sort.Strings(addresses)
	for _, a := range addresses {
		l := accounts[engine.Address(a)]
		snapshot.Notional = append(snapshot.Notional, NotionalRow{Account: a, BalanceA: l.A, BalanceB: l.B})
	}
	return snapshot
}

// RestoreTreasury rebuilds the venue and the notional ledger from a snapshot.
func RestoreTreasury(snapshot *TreasurySnapshot) (*venue.Router, *engine.NotionalLedger, error) {
	router := venue.NewRouter()
	for _, p := range snapshot.Pools {
		err := router.CreatePool(venue.PoolConfig{
			X:        engine.Asset(p.AssetX),
			Y:        engine.Asset(p.AssetY),
			Curve:    engine.Curve(p.Curve),
			ReserveX: p.ReserveX,
			ReserveY: p.ReserveY,
			FeeBps:   p.FeeBps,
		})
		if err != nil {
			return nil, nil, err
		}
	}
	for _, b := range snapshot.Balances {
		router.SetBalance(engine.Address(b.Account), engine.Asset(b.Asset), b.Amount)
	}
	notional := engine.NewNotionalLedger()
	for _, n := range snapshot.Notional {
		notional.Seed(engine.Address(n.Account), n.BalanceA, n.BalanceB)
	}
	return router, notional, nil
}

// LoadTreasury restores the persisted treasury state. On first start it is
// seeded from config and saved.
func LoadTreasury(model TreasuryModel, config *config.Config) (*venue.Router, *engine.NotionalLedger, error) {
	snapshot, err := model.GetTreasury()
	if err == nil {
		logx.Infof("treasury restored: %d pools, %d stores, %d notional accounts",
			len(snapshot.Pools), len(snapshot.Balances), len(snapshot.Notional))
		return RestoreTreasury(snapshot)
	}
	if !errors.Is(err, utils.DbErrNotFound) {
		return nil, nil, err
	}

	router, err := NewRouterFromConfig(config)
	if err != nil {
		return nil, nil, err
	}
	notional, err := NewNotionalLedgerFromConfig(config)
	if err != nil {
		return nil, nil, err
	}
	if err = model.SaveTreasury(SnapshotTreasury(router, notional)); err != nil {
		return nil, nil, err
	}
	logx.Info("treasury seeded from config")
	return router, notional, nil
}

func (g *Gateway) createTables() error {
	if err := g.requestModel.CreateRequestTable(); err != nil {
		return err
	}
	if err := g.authorityModel.CreateAuthorityTable(); err != nil {
		return err
	}
	if err := g.eventModel.CreateEventTable(); err != nil {
		return err
	}
	return g.treasuryModel.CreateTreasuryTables()
}

// bootstrap reloads the authority key and replays archived events so new
// events continue the sequence.
func (g *Gateway) bootstrap() error {
	key, err := g.authorityModel.GetKey()
	if err == nil {
		keyBytes, err := DecodeHex(key.VerificationKey)
		if err != nil {
			return fmt.Errorf("stored authority key: %w", err)
		}
		if err = g.engine.SetKey(engine.Address(key.Admin), keyBytes); err != nil {
			return err
		}
	} else if !errors.Is(err, utils.DbErrNotFound) {
		return err
	}

	for offset := 0; ; offset += eventReplayPageSize {
		rows, err := g.eventModel.GetEvents(offset, eventReplayPageSize)
		if errors.Is(err, utils.DbErrNotFound) {
			break
		}
		if err != nil {
			return err
		}
		events := make([]engine.MovementEvent, 0, len(rows))
		for _, r := range rows {
			events = append(events, engine.MovementEvent{
				Seq:       r.Seq,
				Magnitude: r.Magnitude,
				Increase:  r.Increase,
				Timestamp: r.Timestamp,
			})
		}
		if _, err = g.engine.AuditLedger().Replay(events); err != nil {
			return err
		}
	}
	pair := g.engine.Pair()
	logx.Infof("gateway ready, pair %s/%s (%s), admin %s, authority key set: %v, audit events: %d",
		pair.A, pair.B, pair.Curve, g.engine.Authority().Admin(), g.engine.HasKey(), g.engine.AuditLedger().Len())
	return nil
}

// SetKey rotates the authority key and persists it.
func (g *Gateway) SetKey(caller string, keyHex string) error {
	key, err := DecodeHex(keyHex)
	if err != nil {
		return err
	}
	if err = g.engine.SetKey(engine.Address(caller), key); err != nil {
		return err
	}
	admin := g.engine.Authority().Admin()
	if err = g.authorityModel.UpsertKey(string(admin), hex.EncodeToString(key)); err != nil {
		return err
	}
	logx.Infof("authority key of %s persisted", admin)
	return nil
}

func (g *Gateway) Enqueue(requests []MovementRequest) error {
	return g.requestModel.CreateRequests(requests)
}

func (g *Gateway) Run(rerun bool) {
	requestsFetch := func() ([]*MovementRequest, error) {
		lock := utils.GetRedisLockByKey(g.redisConn, utils.RedisLockKey)
		err := utils.TryAcquireLock(lock)
		if err != nil {
			return nil, utils.GetRedisLockFailed
		}
		//nolint:errcheck
		defer lock.Release()

		return g.requestModel.GetAndUpdateRequestsByStatus(StatusPending, StatusProcessing, g.batchSize)
	}

	requestsFetchForRerun := func() ([]*MovementRequest, error) {
		return g.requestModel.GetRequestsByStatus(StatusProcessing, g.batchSize)
	}

	for {
		var requests []*MovementRequest
		var err error
		if !rerun {
			requests, err = requestsFetch()
		} else {
			requests, err = requestsFetchForRerun()
		}
		if errors.Is(err, utils.GetRedisLockFailed) {
			logx.Info("get redis lock failed")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if errors.Is(err, utils.DbErrNotFound) {
			logx.Info("there is no pending movement request in db, so quit")
			logx.Info("gateway run finish...")
			return
		}
		if err != nil {
			logx.Errorf("get movement requests failed: %s", err.Error())
			return
		}
		for _, r := range requests {
			if err = g.process(r); err != nil {
				logx.Errorf("persist result of request %d failed: %s", r.ID, err.Error())
				return
			}
		}
	}
}

func (g *Gateway) process(r *MovementRequest) error {
	receipt, err := g.apply(r)
	if err != nil {
		r.Status = StatusRejected
		r.AbortCode = string(engine.AbortCodeOf(err))
		logx.Infof("request %d rejected: %s", r.ID, r.AbortCode)
		return g.commit(r, nil)
	}

	r.Status = StatusAccepted
	r.EventSeq = int64(receipt.Event.Seq)
	r.AmountIn = receipt.Fill.AmountIn
	r.AmountOut = receipt.Fill.AmountOut

	leaf, _, err := g.engine.AuditLedger().Proof(receipt.Event.Seq)
	if err != nil && !errors.Is(err, engine.ErrEventNotSealed) {
		return err
	}
	event := &MovementEventRow{
		Seq:       receipt.Event.Seq,
		Magnitude: receipt.Event.Magnitude,
		Increase:  receipt.Event.Increase,
		Timestamp: receipt.Event.Timestamp,
		Account:   r.Account,
		AmountIn:  receipt.Fill.AmountIn,
		AmountOut: receipt.Fill.AmountOut,
		LeafHash:  hex.EncodeToString(leaf),
		AuditRoot: hex.EncodeToString(g.engine.AuditLedger().Root()),
	}
	if err = g.commit(r, event); err != nil {
		return err
	}
	logx.Infof("request %d accepted as event %d: %s", r.ID, receipt.Event.Seq, g.describeFill(receipt.Fill))
	return nil
}

func (g *Gateway) describeFill(fill engine.Fill) string {
	return fmt.Sprintf("%s %s in, %s %s out",
		utils.FormatUnits(fill.AmountIn, g.decimals), fill.From,
		utils.FormatUnits(fill.AmountOut, g.decimals), fill.To)
}

// commit writes the request result together with, for accepted requests,
// the event row and the treasury state in one transaction.
func (g *Gateway) commit(r *MovementRequest, event *MovementEventRow) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		if event != nil {
			if err := NewEventModel(tx, g.suffix).CreateEvent(event); err != nil {
				return err
			}
			snapshot := SnapshotTreasury(g.router, g.engine.NotionalLedger())
			if err := NewTreasuryModel(tx, g.suffix).SaveTreasury(snapshot); err != nil {
				return err
			}
		}
		return NewRequestModel(tx, g.suffix).UpdateRequestResult(r)
	})
}

func (g *Gateway) apply(r *MovementRequest) (engine.Receipt, error) {
	sig, err := DecodeHex(r.Signature)
	if err != nil {
		return engine.Receipt{}, fmt.Errorf("%w: %s", engine.ErrVerificationFailed, err.Error())
	}
	return g.engine.Dispatch(engine.MovementCall{
		Caller:    engine.Address(r.Account),
		Magnitude: r.Magnitude,
		Increase:  r.Increase,
		Signature: sig,
		Notional:  r.Notional,
	})
}

func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}

// ParseMovementRequest parses "account:magnitude:increase:signature[:notional]".
func ParseMovementRequest(s string) (MovementRequest, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 && len(parts) != 5 {
		return MovementRequest{}, fmt.Errorf("malformed movement request %q", s)
	}
	magnitude, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return MovementRequest{}, fmt.Errorf("magnitude: %w", err)
	}
	increase, err := strconv.ParseBool(parts[2])
	if err != nil {
		return MovementRequest{}, fmt.Errorf("direction: %w", err)
	}
	if _, err = DecodeHex(parts[3]); err != nil {
		return MovementRequest{}, fmt.Errorf("signature: %w", err)
	}
	req := MovementRequest{
		Account:   parts[0],
		Magnitude: magnitude,
		Increase:  increase,
		Signature: strings.TrimPrefix(parts[3], "0x"),
	}
	if len(parts) == 5 {
		if req.Notional, err = strconv.ParseBool(parts[4]); err != nil {
			return MovementRequest{}, fmt.Errorf("notional flag: %w", err)
		}
	}
	return req, nil
}
