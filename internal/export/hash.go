package export

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/crypto/argon2"
)

var ErrUnsupportedHashType = errors.New("unsupported hash type")

// HashType represents the different hashing algorithms available.
type HashType string

const (
	// HashTypeArgon2id uses the Argon2id algorithm for hashing.
	HashTypeArgon2id HashType = "argon2id"
	// HashTypeSHA256 uses iterated SHA256 for hashing.
	HashTypeSHA256 HashType = "sha256"
)

// Validate checks that the hash type is known.
func (h HashType) Validate() error {
	switch h {
	case HashTypeArgon2id, HashTypeSHA256:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedHashType, h)
	}
}

// HashID converts a Discord ID to a salted hash. Memory is in MiB and only
// used by Argon2id.
func HashID(id snowflake.ID, salt string, hashType HashType, iterations, memory uint32) string {
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, uint64(id))

	var hash []byte

	switch hashType {
	case HashTypeArgon2id:
		hash = argon2.IDKey(idBytes, []byte(salt), iterations, memory*1024, 1, 32)
	case HashTypeSHA256:
		hash = []byte(salt)

		h := sha256.New()
		for range iterations {
			h.Reset()
			h.Write(idBytes)
			h.Write(hash)
			hash = h.Sum(nil)
		}
	}

	return hex.EncodeToString(hash)
}

// hashIDs hashes the ids concurrently, keeping their order. Repeated ids are
// hashed once.
func hashIDs(ids []snowflake.ID, cfg *Config) []string {
	unique := make(map[snowflake.ID]string, len(ids))
	for _, id := range ids {
		unique[id] = ""
	}

	type result struct {
		id   snowflake.ID
		hash string
	}

	p := pool.NewWithResults[result]().WithMaxGoroutines(max(cfg.Concurrency, 1))
	for id := range unique {
		p.Go(func() result {
			return result{id: id, hash: HashID(id, cfg.Salt, cfg.HashType, cfg.Iterations, cfg.Memory)}
		})
	}

	for _, r := range p.Wait() {
		unique[r.id] = r.hash
	}

	hashes := make([]string, len(ids))
	for i, id := range ids {
		hashes[i] = unique[id]
	}
	return hashes
}
