package services

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"stakehouse/domain/entities"
	"stakehouse/domain/interfaces"
)

// fairnessSource derives draws from hash(secret + entropy) -> seed ->
// seeded PRNG -> float. The value is indistinguishable from uniform to a
// caller who does not know the secret, yet anyone given the seed can
// replay the PRNG and verify the outcome.
type fairnessSource struct {
	secret string
}

// NewFairnessSource creates a fairness source. The secret is the
// process-wide hidden component mixed into every seed; callers must not
// construct a source with an empty secret.
func NewFairnessSource(secret string) interfaces.FairnessSource {
	if secret == "" {
		panic("fairness source requires a non-empty secret")
	}
	return &fairnessSource{secret: secret}
}

// Draw produces one auditable draw. Each call is self-contained: the seed
// concatenates the secret, a timestamp-embedding identifier and a fresh
// random identifier, so no two calls share a seed even under concurrency.
func (f *fairnessSource) Draw(algorithm entities.DrawAlgorithm) entities.Draw {
	entropy, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source is unavailable, and a
		// process that cannot draw cannot serve games at all.
		panic("fairness entropy source unavailable: " + err.Error())
	}
	nonce := uuid.New()

	material := f.secret + entropy.String() + nonce.String()

	var digest []byte
	switch algorithm {
	case entities.DrawAlgorithmMD5:
		sum := md5.Sum([]byte(material))
		digest = sum[:]
	default:
		sum := sha256.Sum256([]byte(material))
		digest = sum[:]
		algorithm = entities.DrawAlgorithmSHA256
	}

	seed := hex.EncodeToString(digest)

	return entities.Draw{
		Seed:      seed,
		Algorithm: algorithm,
		Value:     ValueFromSeed(seed),
		CreatedAt: time.Now().UTC(),
	}
}

// ValueFromSeed deterministically maps a seed to its [0,1) value. Exposed
// so an auditor holding a persisted seed can replay the draw.
func ValueFromSeed(seed string) float64 {
	digest, err := hex.DecodeString(seed)
	if err != nil || len(digest) < 8 {
		// Seeds are always hex digests of at least 16 bytes; anything else
		// never came from this source.
		panic("malformed draw seed")
	}
	source := rand.NewSource(int64(binary.BigEndian.Uint64(digest[:8])))
	return rand.New(source).Float64()
}
