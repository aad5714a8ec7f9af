package utils

import (
	"math/big"
)

const (
	// AuditTreeDepth bounds the audit ledger at 2^28 movement events
	AuditTreeDepth         = 28
	RedisLockKey           = "gateway_mutex_key"
	RedisLockExpireSeconds = 30
	// DefaultAssetDecimals matches the 8 decimal coins used on the venue (SUPRA, APT, USDT bridge)
	DefaultAssetDecimals = 8
)

var (
	PercentageMultiplier = new(big.Int).SetUint64(100)

	// NilEventHash is the value of an unset audit leaf.
	NilEventHash []byte
)
