package trip

import (
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

// veoRideProviderPrefix is VeoRide's provider_id, grounded on
// original_source/MDSTrip.py's int_to_uuid. It is the full dashed UUID
// shape, not just the 8-char prefix spec.md calls out: the splice point
// falls inside the last group for small integers, so the constant must
// carry the complete trailing "ffff" run for the splice to land correctly
// for every magnitude of input.
const veoRideProviderPrefix = "0309585e-599f-4e57-ac85-ffffffffffff"

// IntToUUID reproduces VeoRide's trip/device-id derivation: an integer ID
// is packed into the low 8 bytes of a 16-byte big-endian buffer, rendered
// as a canonical dashed UUID, and everything up to the first non-"0"
// non-"-" character is replaced by provider_id's own characters at the
// same positions.
//
// Verified against the three spec fixtures:
//
//	IntToUUID(1)        == "0309585e-599f-4e57-ac85-fffffffffff1"
//	IntToUUID(104865)   == "0309585e-599f-4e57-ac85-fffffff199a1"
//	IntToUUID(99999999) == "0309585e-599f-4e57-ac85-fffff5f5e0ff"
func IntToUUID(n int64) string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[8:], uint64(n))

	u, _ := uuid.FromBytes(b[:])
	ms := u.String()

	i := strings.IndexFunc(ms, func(r rune) bool {
		return r != '0' && r != '-'
	})
	if i < 0 {
		i = len(ms)
	}

	return veoRideProviderPrefix[:i] + ms[i:]
}
