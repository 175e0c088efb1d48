package xid

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tempPrefix = "tmp-"

// New returns a canonical record id.
func New() string {
	return uuid.NewString()
}

// Temp returns a placeholder id for a record the server has not confirmed yet.
func Temp() string {
	return tempPrefix + uuid.NewString()
}

func IsTemp(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Invoice returns INV-YYYYMMDD-XXXXX for the given day. The suffix is random
// and collisions are not checked.
func Invoice(at time.Time) string {
	var suffix [5]byte
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(at.UnixNano() % int64(len(base36)))
		}
		suffix[i] = base36[n.Int64()]
	}
	return "INV-" + at.Format("20060102") + "-" + string(suffix[:])
}
