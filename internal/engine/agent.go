package engine

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/gosnmp/gosnmp"

	"github.com/tonhe/netflo/internal/topology"
)

// Sampler answers a poll request for a device.
type Sampler interface {
	Sample(ctx context.Context, d topology.Device) (*gosnmp.SnmpPacket, error)
}

// Agent fabricates SNMP GET responses for devices. CPU and memory hover
// around a baseline derived from the device address; everything else is a
// fresh random draw on every call.
type Agent struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ Sampler = (*Agent)(nil)

// NewAgent returns an Agent drawing from rng. A nil rng uses a randomly
// seeded source.
func NewAgent(rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Agent{rng: rng}
}

// between returns a uniform integer in [min, max].
func (a *Agent) between(min, max int) int {
	return min + a.rng.IntN(max-min+1)
}

// drawStatus: ~90% up, ~5% warning, ~5% down.
func (a *Agent) drawStatus() topology.Status {
	if a.between(1, 100) > 10 {
		return topology.StatusUp
	}
	if a.between(1, 100) > 50 {
		return topology.StatusWarning
	}
	return topology.StatusDown
}

// Sample returns a GetResponse PDU for every OID in PollOIDs.
func (a *Agent) Sample(ctx context.Context, d topology.Device) (*gosnmp.SnmpPacket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	base := BaseLoad(Seed(d.IP))
	status := a.drawStatus()
	days, hours := a.between(1, 90), a.between(0, 23)
	cpu := clampPercent(int64(base + a.between(-5, 15)))
	memory := clampPercent(int64(base + a.between(0, 20)))
	in, out := a.between(100, 900), a.between(100, 900)

	values := map[string]gosnmp.SnmpPDU{
		OIDsysUpTime:       {Type: gosnmp.TimeTicks, Value: uint32((days*86400 + hours*3600) * 100)},
		OIDhrProcessorLoad: {Type: gosnmp.Integer, Value: cpu},
		OIDhrStorageSize:   {Type: gosnmp.Integer, Value: storageSize},
		OIDhrStorageUsed:   {Type: gosnmp.Integer, Value: memory * storageSize / 100},
		OIDifInOctets:      {Type: gosnmp.Counter64, Value: uint64(in) * octetsPerMbps},
		OIDifOutOctets:     {Type: gosnmp.Counter64, Value: uint64(out) * octetsPerMbps},
		OIDifOperStatus:    {Type: gosnmp.Integer, Value: operStatusValue(status)},
	}

	vars := make([]gosnmp.SnmpPDU, 0, len(PollOIDs))
	for _, oid := range PollOIDs {
		pdu, ok := values[oid]
		if !ok {
			pdu = gosnmp.SnmpPDU{Type: gosnmp.NoSuchObject}
		}
		pdu.Name = "." + oid
		vars = append(vars, pdu)
	}

	client := NewSNMPClient(d)
	return &gosnmp.SnmpPacket{
		Version:   client.Version,
		Community: client.Community,
		PDUType:   gosnmp.GetResponse,
		Error:     gosnmp.NoError,
		Variables: vars,
	}, nil
}
