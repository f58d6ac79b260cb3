package engine

import (
	"errors"
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// ErrMissingVariable is returned when a response lacks a required OID.
var ErrMissingVariable = errors.New("missing variable")

// Decode turns a GetResponse into a Reading. Percentages are clamped to
// 0..100.
func Decode(pkt *gosnmp.SnmpPacket) (Reading, error) {
	if pkt == nil {
		return Reading{}, errors.New("nil response")
	}
	if pkt.Error != gosnmp.NoError {
		return Reading{}, fmt.Errorf("agent returned %v", pkt.Error)
	}

	vals := make(map[string]gosnmp.SnmpPDU, len(pkt.Variables))
	for _, v := range pkt.Variables {
		switch v.Type {
		case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
			continue
		}
		vals[normalizeOID(v.Name)] = v
	}

	get := func(oid string) (int64, error) {
		v, ok := vals[oid]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingVariable, oid)
		}
		return gosnmp.ToBigInt(v.Value).Int64(), nil
	}

	var r Reading
	ticks, err := get(OIDsysUpTime)
	if err != nil {
		return r, err
	}
	r.Uptime = formatUptime(uint64(ticks))

	cpu, err := get(OIDhrProcessorLoad)
	if err != nil {
		return r, err
	}
	r.CPU = clampPercent(cpu)

	size, err := get(OIDhrStorageSize)
	if err != nil {
		return r, err
	}
	used, err := get(OIDhrStorageUsed)
	if err != nil {
		return r, err
	}
	if size > 0 {
		r.Memory = clampPercent(used * 100 / size)
	}

	in, err := get(OIDifInOctets)
	if err != nil {
		return r, err
	}
	out, err := get(OIDifOutOctets)
	if err != nil {
		return r, err
	}
	r.InMbps = float64(in) / octetsPerMbps
	r.OutMbps = float64(out) / octetsPerMbps

	oper, err := get(OIDifOperStatus)
	if err != nil {
		return r, err
	}
	status, ok := operStatus(oper)
	if !ok {
		return r, fmt.Errorf("unknown ifOperStatus %d", oper)
	}
	r.Status = status
	return r, nil
}
