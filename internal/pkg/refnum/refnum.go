package refnum

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Reference number prefixes
const (
	PrefixApplication = "APP"
	PrefixArchive     = "ARC"
)

// Generate produces a human-readable reference number of the form
// {prefix}-{unixMillis}-{NNNN} where NNNN is a zero-padded random in 1..9999.
// Uniqueness is probabilistic only; the storage layer's unique index is the
// source of truth and callers retry with a fresh number on conflict.
func Generate(prefix string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(9999))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the timestamp so the caller still gets a number
		// and the unique index catches any collision.
		n = big.NewInt(time.Now().UnixNano() % 9999)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().UnixMilli(), n.Int64()+1)
}
