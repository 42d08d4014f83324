// Package step defines the single-instruction oracle that settles execution leaves.
package step

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Oracle executes one instruction of the disputed program.
// Implementations must be deterministic and free of side effects.
type Oracle interface {
	Execute(preState common.Hash, proof []byte) (common.Hash, error)
}

type OracleFunc func(preState common.Hash, proof []byte) (common.Hash, error)

func (fn OracleFunc) Execute(preState common.Hash, proof []byte) (common.Hash, error) {
	return fn(preState, proof)
}

// KeccakOracle transitions by hashing: post = keccak256(pre ++ proof).
// The proof is the preimage witness of the transition.
type KeccakOracle struct{}

var _ Oracle = KeccakOracle{}

func (KeccakOracle) Execute(preState common.Hash, proof []byte) (common.Hash, error) {
	return crypto.Keccak256Hash(preState[:], proof), nil
}

type cacheKey struct {
	pre   common.Hash
	proof common.Hash
}

// CachingOracle memoizes the results of a pure oracle.
type CachingOracle struct {
	inner Oracle
	cache *lru.Cache[cacheKey, common.Hash]
}

var _ Oracle = (*CachingOracle)(nil)

func NewCachingOracle(inner Oracle, size int) (*CachingOracle, error) {
	cache, err := lru.New[cacheKey, common.Hash](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create step cache: %w", err)
	}
	return &CachingOracle{inner: inner, cache: cache}, nil
}

func (o *CachingOracle) Execute(preState common.Hash, proof []byte) (common.Hash, error) {
	key := cacheKey{pre: preState, proof: crypto.Keccak256Hash(proof)}
	if post, ok := o.cache.Get(key); ok {
		return post, nil
	}
	post, err := o.inner.Execute(preState, proof)
	if err != nil {
		return common.Hash{}, err
	}
	o.cache.Add(key, post)
	return post, nil
}
