package utils

import (
	"encoding/binary"
	"hash"
	"time"

	bsmt "github.com/bnb-chain/zkbnb-smt"
	"github.com/bnb-chain/zkbnb-smt/database"
	"github.com/bnb-chain/zkbnb-smt/database/memory"
	"github.com/bnb-chain/zkbnb-smt/database/redis"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon"
)

func NewAuditTree(driver string, addr string) (auditTree bsmt.SparseMerkleTree, err error) {

	hasher := bsmt.NewHasherPool(func() hash.Hash {
		return poseidon.NewPoseidon()
	})

	var db database.TreeDB
	switch driver {
	case "memory", "":
		db = memory.NewMemoryDB()
	case "redis":
		redisOption := &redis.RedisConfig{}
		redisOption.Addr = addr
		redisOption.DialTimeout = 10 * time.Second
		redisOption.ReadTimeout = 10 * time.Second
		redisOption.WriteTimeout = 10 * time.Second
		redisOption.PoolTimeout = 15 * time.Second
		redisOption.IdleTimeout = 5 * time.Minute
		redisOption.PoolSize = 50
		redisOption.MaxRetries = 5
		redisOption.MinRetryBackoff = 8 * time.Millisecond
		redisOption.MaxRetryBackoff = 512 * time.Millisecond
		db, err = redis.New(redisOption)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownTreeDriver
	}

	auditTree, err = bsmt.NewBNBSparseMerkleTree(hasher, db, AuditTreeDepth, NilEventHash)
	if err != nil {
		return nil, err
	}
	return auditTree, nil
}

// EventLeafHash commits one movement event. Each field is its own poseidon
// element, encoded as an 8 byte big-endian word.
func EventLeafHash(seq uint64, magnitude uint64, increase bool, timestamp uint64) []byte {
	var direction uint64
	if increase {
		direction = 1
	}
	words := make([][]byte, 0, 4)
	for _, v := range []uint64{seq, magnitude, direction, timestamp} {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, v)
		words = append(words, buf)
	}
	return poseidon.PoseidonBytes(words...)
}

func VerifyMerkleProof(root []byte, index uint64, proof [][]byte, node []byte) bool {
	if len(proof) != AuditTreeDepth {
		return false
	}
	hasher := poseidon.NewPoseidon()
	for i := 0; i < AuditTreeDepth; i++ {
		bit := index & (1 << i)
		if bit == 0 {
			hasher.Write(node)
			hasher.Write(proof[i])
		} else {
			hasher.Write(proof[i])
			hasher.Write(node)
		}
		node = hasher.Sum(nil)
		hasher.Reset()
	}
	return string(node) == string(root)
}
