package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

// ConvertFloatStrToUint64 turns a human amount like "12.5" into base units.
func ConvertFloatStrToUint64(f string, multiplier int64) (uint64, error) {
	if f == "0.0" || f == "0" {
		return 0, nil
	}
	numFloat, err := decimal.NewFromString(f)
	if err != nil {
		return 0, err
	}
	if numFloat.IsNegative() {
		return 0, ErrInvalidAmount
	}
	numFloat = numFloat.Mul(decimal.NewFromInt(multiplier))
	numBigInt := numFloat.BigInt()
	if !numBigInt.IsUint64() {
		return 0, errors.New("overflow uint64")
	}
	return numBigInt.Uint64(), nil
}

// DecimalsMultiplier returns 10^decimals as an int64 multiplier.
func DecimalsMultiplier(decimals int32) int64 {
	return decimal.New(1, decimals).IntPart()
}

// FormatUnits renders base units back into a human amount.
func FormatUnits(amount uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).String()
}

// PercentOfBalance returns floor(balance*percent/100) without overflowing uint64.
func PercentOfBalance(balance uint64, percent uint64) uint64 {
	res := new(big.Int).SetUint64(balance)
	res.Mul(res, new(big.Int).SetUint64(percent))
	res.Div(res, PercentageMultiplier)
	return res.Uint64()
}

func SafeAdd(a uint64, b uint64) (c uint64) {
	c = a + b
	if c < a {
		panic("overflow for balance")
	}
	return c
}

func SafeSub(a uint64, b uint64) uint64 {
	if b > a {
		panic("underflow for balance")
	}
	return a - b
}

func ConvertMysqlErrToDbErr(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if mysqlErr.Number == 1317 {
			return DbErrQueryInterrupted
		}
		if mysqlErr.Number == 3024 {
			return DbErrQueryTimeout
		}
		if mysqlErr.Number == 1146 {
			return DbErrTableNotFound
		}
	}
	return err
}

// InjectMysqlPassword places passwd between the user and the '@' of a DSN
// such as "gateway:@tcp(127.0.0.1:3306)/gateway?parseTime=true".
func InjectMysqlPassword(source string, passwd string) (string, error) {
	at := strings.Index(source, "@")
	if at < 0 {
		return "", fmt.Errorf("malformed mysql source")
	}
	userPart := source[:at]
	if colon := strings.Index(userPart, ":"); colon >= 0 {
		userPart = userPart[:colon]
	}
	return userPart + ":" + passwd + source[at:], nil
}

func GetRedisLockByKey(conn *redis.Redis, keyLock string) (redisLock *redis.RedisLock) {
	redisLock = redis.NewRedisLock(conn, keyLock)
	redisLock.SetExpire(RedisLockExpireSeconds)
	return redisLock
}

func TryAcquireLock(redisLock *redis.RedisLock) (err error) {
	ok, err := redisLock.Acquire()
	if err != nil {
		return err
	}
	if !ok {
		return GetRedisLockFailed
	}
	return nil
}
