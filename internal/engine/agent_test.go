package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/gosnmp/gosnmp"

	"github.com/tonhe/netflo/internal/topology"
)

func TestAgentSampleRanges(t *testing.T) {
	agent := NewAgent(rand.New(rand.NewPCG(42, 7)))
	dev := topology.Device{ID: "d", Name: "Edge-1", IP: "10.0.0.9", SNMPCommunity: "private"}
	base := BaseLoad(Seed(dev.IP))

	counts := map[topology.Status]int{}
	const n = 2000
	for i := 0; i < n; i++ {
		pkt, err := agent.Sample(context.Background(), dev)
		if err != nil {
			t.Fatalf("Sample() error: %v", err)
		}
		if pkt.Community != "private" || pkt.PDUType != gosnmp.GetResponse {
			t.Fatalf("unexpected packet header: %+v", pkt)
		}
		r, err := Decode(pkt)
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		counts[r.Status]++

		if r.CPU < max(0, base-5) || r.CPU > base+15 {
			t.Errorf("cpu %d outside baseline window around %d", r.CPU, base)
		}
		if r.Memory < base || r.Memory > base+20 {
			t.Errorf("memory %d outside baseline window around %d", r.Memory, base)
		}
		if r.InMbps < 100 || r.InMbps > 900 || r.OutMbps < 100 || r.OutMbps > 900 {
			t.Errorf("traffic out of range: in=%v out=%v", r.InMbps, r.OutMbps)
		}
	}

	if counts[topology.StatusUp] < n*80/100 {
		t.Errorf("expected roughly 90%% up, got %d of %d", counts[topology.StatusUp], n)
	}
	if counts[topology.StatusWarning] == 0 || counts[topology.StatusDown] == 0 {
		t.Errorf("expected some warning and down draws, got %v", counts)
	}
}

func TestAgentSampleAnswersPollOIDs(t *testing.T) {
	pkt, err := NewAgent(rand.New(rand.NewPCG(1, 2))).Sample(context.Background(), topology.Device{IP: "10.0.0.9"})
	if err != nil {
		t.Fatalf("Sample() error: %v", err)
	}
	if len(pkt.Variables) != len(PollOIDs) {
		t.Fatalf("got %d variables, want %d", len(pkt.Variables), len(PollOIDs))
	}
	for i, oid := range PollOIDs {
		v := pkt.Variables[i]
		if v.Name != "."+oid {
			t.Errorf("variable %d = %s, want .%s", i, v.Name, oid)
		}
		if v.Type == gosnmp.NoSuchObject {
			t.Errorf("%s has no value", oid)
		}
	}
}

func TestAgentSampleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewAgent(nil).Sample(ctx, topology.Device{IP: "10.0.0.1"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	pkt := &gosnmp.SnmpPacket{
		PDUType: gosnmp.GetResponse,
		Variables: []gosnmp.SnmpPDU{
			{Name: "." + OIDsysUpTime, Type: gosnmp.TimeTicks, Value: uint32((12*86400 + 5*3600) * 100)},
			{Name: OIDhrProcessorLoad, Type: gosnmp.Integer, Value: 140},
			{Name: OIDhrStorageSize, Type: gosnmp.Integer, Value: 2000},
			{Name: OIDhrStorageUsed, Type: gosnmp.Integer, Value: 500},
			{Name: OIDifInOctets, Type: gosnmp.Counter64, Value: uint64(400 * octetsPerMbps)},
			{Name: OIDifOutOctets, Type: gosnmp.Counter64, Value: uint64(600 * octetsPerMbps)},
			{Name: OIDifOperStatus, Type: gosnmp.Integer, Value: 3},
		},
	}
	r, err := Decode(pkt)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	want := Reading{Status: topology.StatusWarning, Uptime: "12d 5h", CPU: 100, Memory: 25, InMbps: 400, OutMbps: 600}
	if r != want {
		t.Errorf("Decode() = %+v, want %+v", r, want)
	}
}

func TestDecodeMissingVariable(t *testing.T) {
	pkt := &gosnmp.SnmpPacket{
		Variables: []gosnmp.SnmpPDU{
			{Name: OIDsysUpTime, Type: gosnmp.TimeTicks, Value: uint32(100)},
			{Name: OIDhrProcessorLoad, Type: gosnmp.NoSuchInstance},
		},
	}
	if _, err := Decode(pkt); !errors.Is(err, ErrMissingVariable) {
		t.Errorf("expected ErrMissingVariable, got %v", err)
	}
}

func TestDecodeErrorStatus(t *testing.T) {
	if _, err := Decode(&gosnmp.SnmpPacket{Error: gosnmp.GenErr}); err == nil {
		t.Error("expected error for genErr response")
	}
	if _, err := Decode(nil); err == nil {
		t.Error("expected error for nil packet")
	}
}
