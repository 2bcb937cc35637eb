package main

import (
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/go-faker/faker/v4"

	"github.com/btree-query-bench/leafchain/index"
)

type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10)"
	OLAP      WorkloadType = "OLAP (10/90)"
	Reporting WorkloadType = "Reporting (Range)"
)

// reportingSpan is the width of each range query.
const reportingSpan = 100

// payloads returns n short values generated with faker.
func payloads(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(faker.Word())
	}
	return out
}

// ExecuteWorkload runs a mixed distribution of ops over keys in [0, keys).
func ExecuteWorkload(idx index.Index, rng *rand.Rand, wType WorkloadType, ops, keys int, values [][]byte) error {
	for i := 0; i < ops; i++ {
		choice := rng.Intn(100)
		key := int64(rng.Intn(keys))

		var err error
		switch wType {
		case OLTP:
			if choice < 90 {
				_, err = idx.Get(key)
			} else {
				err = idx.Insert(key, values[rng.Intn(len(values))])
			}
		case OLAP:
			if choice < 10 {
				_, err = idx.Get(key)
			} else {
				err = idx.Insert(key, values[rng.Intn(len(values))])
			}
		case Reporting:
			var it index.Iterator
			if it, err = idx.Range(key, key+reportingSpan); err == nil {
				for it.Next() {
				}
				err = errors.CombineErrors(it.Error(), it.Close())
			}
		default:
			return errors.Newf("unknown workload %q", wType)
		}
		if err != nil && !errors.Is(err, index.ErrKeyNotFound) {
			return errors.Wrapf(err, "%s op %d", wType, i)
		}
	}
	return nil
}
