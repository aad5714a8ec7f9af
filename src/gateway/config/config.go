package config

import "github.com/zeromicro/go-zero/core/logx"

type Config struct {
	MysqlDataSource string
	DbSuffix        string `json:",optional"`
	Redis           struct {
		Host     string
		Type     string `json:",default=node"`
		Password string `json:",optional"`
	}
	Log logx.LogConf `json:",optional"`

	// Admin is the address allowed to rotate the authority key.
	Admin string
	Pair  struct {
		A     string
		B     string
		Curve string `json:",default=uncorrelated"`
	}
	AuditTree struct {
		Driver string `json:",default=memory,options=memory|redis"`
		Addr   string `json:",optional"`
	}
	// Pools seed the simulated venue. Amounts are human units.
	Pools []struct {
		ReserveA string
		ReserveB string
		FeeBps   uint64 `json:",optional"`
	} `json:",optional"`
	Accounts []struct {
		Address  string
		BalanceA string `json:",default=0"`
		BalanceB string `json:",default=0"`
	} `json:",optional"`
	// NotionalAccounts seed the notional ledger used by notional requests.
	NotionalAccounts []struct {
		Address  string
		BalanceA string `json:",default=0"`
		BalanceB string `json:",default=0"`
	} `json:",optional"`
	Decimals  int32 `json:",default=8"`
	BatchSize int32 `json:",default=16"`
}
