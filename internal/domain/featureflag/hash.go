package featureflag

import (
	"encoding/binary"
	"hash/fnv"
)

// HashBucketCount fixes the bucket space at 0-99 so percentages map
// directly onto buckets.
const HashBucketCount = 100

// ComputeHashBucket maps a (flag, user) pair to a stable bucket in 0-99.
// The flag key is part of the hash input so a user lands in different
// buckets for different flags; the same pair always lands in the same
// bucket, which keeps percentage rollouts sticky across requests.
func ComputeHashBucket(flagKey, userID string) int {
	h := murmur3Hash32([]byte(flagKey+":"+userID), 0)
	return int(h % HashBucketCount)
}

// ComputeHashBucketWithSeed is ComputeHashBucket with an explicit seed,
// for callers that need independent bucketings of the same pair.
func ComputeHashBucketWithSeed(flagKey, userID string, seed uint32) int {
	hashInput := flagKey + ":" + userID
	h := murmur3Hash32([]byte(hashInput), seed)
	return int(h % HashBucketCount)
}

// IsInPercentage reports whether the user is inside a 0-100 rollout
// percentage for the flag.
func IsInPercentage(flagKey, userID string, percentage int) bool {
	if percentage <= 0 {
		return false
	}
	if percentage >= 100 {
		return true
	}
	bucket := ComputeHashBucket(flagKey, userID)
	return bucket < percentage
}

// GetVariantBucket assigns the user to one of variantCount buckets.
// The ":variant:" infix keeps variant assignment independent of the
// percentage bucket for the same flag.
func GetVariantBucket(flagKey, userID string, variantCount int) int {
	if variantCount <= 1 {
		return 0
	}

	hashInput := flagKey + ":variant:" + userID
	h := murmur3Hash32([]byte(hashInput), 0)
	return int(h % uint32(variantCount))
}

// SelectVariant picks uniformly among variants; empty input yields "".
func SelectVariant(flagKey, userID string, variants []string) string {
	if len(variants) == 0 {
		return ""
	}
	if len(variants) == 1 {
		return variants[0]
	}
	bucket := GetVariantBucket(flagKey, userID, len(variants))
	return variants[bucket]
}

// SelectVariantWeighted picks among variants with relative weights, e.g.
// weights 50/30/20 over three variants. Mismatched or all-zero weights
// fall back to the uniform pick.
func SelectVariantWeighted(flagKey, userID string, variants []string, weights []int) string {
	if len(variants) == 0 || len(weights) == 0 {
		return ""
	}
	if len(variants) != len(weights) {
		return SelectVariant(flagKey, userID, variants)
	}

	totalWeight := 0
	for _, w := range weights {
		if w > 0 {
			totalWeight += w
		}
	}
	if totalWeight == 0 {
		return SelectVariant(flagKey, userID, variants)
	}

	h := murmur3Hash32([]byte(flagKey+":variant:"+userID), 0)
	position := int(h % uint32(totalWeight))

	cumulative := 0
	for i, w := range weights {
		if w > 0 {
			cumulative += w
			if position < cumulative {
				return variants[i]
			}
		}
	}

	return variants[len(variants)-1]
}

// murmur3Hash32 is the 32-bit MurmurHash3. Implemented here so bucket
// assignments match on every platform and never drift with a dependency
// upgrade.
func murmur3Hash32(data []byte, seed uint32) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
		r1 = 15
		r2 = 13
		m  = 5
		n  = 0xe6546b64
	)

	h := seed
	length := len(data)
	nblocks := length / 4

	for i := range nblocks {
		k := binary.LittleEndian.Uint32(data[i*4:])

		k *= c1
		k = rotl32(k, r1)
		k *= c2

		h ^= k
		h = rotl32(h, r2)
		h = h*m + n
	}

	tail := data[nblocks*4:]
	var k1 uint32

	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= c1
		k1 = rotl32(k1, r1)
		k1 *= c2
		h ^= k1
	}

	h ^= uint32(length)
	h = fmix32(h)

	return h
}

func rotl32(x uint32, r uint8) uint32 {
	return (x << r) | (x >> (32 - r))
}

func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// FNVHash is an FNV-1a bucketing used in tests to sanity-check the
// murmur distribution.
func FNVHash(flagKey, userID string) int {
	h := fnv.New32a()
	h.Write([]byte(flagKey + ":" + userID))
	return int(h.Sum32() % HashBucketCount)
}
