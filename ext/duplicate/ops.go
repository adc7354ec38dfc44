package duplicate

import (
	"encoding/hex"
	"time"

	"lukechampine.com/blake3"

	"github.com/migadu/sieve/registry"
)

var operations = []registry.Operation{
	{Mnemonic: "DUPLICATE", Ext: "duplicate", LocalCode: opDUPLICATE, Exec: execDuplicate},
}

func execDuplicate(rt registry.RuntimeEnv) (registry.Signal, error) {
	var handle string
	seconds := uint64(defaultSeconds)
	last := false
	for {
		code, ok, err := rt.ReadOptBlock()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		switch code {
		case optHandle:
			handle, err = rt.ReadString()
		case optSeconds:
			seconds, err = rt.ReadPackedUint()
		case optLast:
			last = true
		}
		if err != nil {
			return 0, err
		}
	}

	host := rt.Host()
	if host == nil || host.DuplicateCheck == nil {
		rt.SetTestRegister(false)
		return registry.SigNext, nil
	}

	key := fingerprint(handle, rt.Msg().MessageID)
	seen, err := host.DuplicateCheck(key, host.Username)
	if err != nil {
		return 0, err
	}
	rt.SetTestRegister(seen)

	if !seen && !last && host.DuplicateMark != nil {
		expire := time.Now().Add(time.Duration(seconds) * time.Second).Unix()
		if err := host.DuplicateMark(key, host.Username, expire); err != nil {
			return 0, err
		}
	}
	return registry.SigNext, nil
}

// fingerprint hashes handle+messageID with blake3 so the
// duplicate-suppression key is fixed-width and collision-resistant
// regardless of header length.
func fingerprint(handle, messageID string) string {
	sum := blake3.Sum256([]byte(handle + "\x00" + messageID))
	return hex.EncodeToString(sum[:])
}
