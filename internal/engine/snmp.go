package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/tonhe/netflo/internal/topology"
)

// SNMP OIDs the simulated agent answers for. The trailing .1 selects the
// first processor, storage entry or interface.
const (
	OIDsysUpTime       = "1.3.6.1.2.1.1.3.0"
	OIDhrProcessorLoad = "1.3.6.1.2.1.25.3.3.1.2.1"
	OIDhrStorageSize   = "1.3.6.1.2.1.25.2.3.1.5.1"
	OIDhrStorageUsed   = "1.3.6.1.2.1.25.2.3.1.6.1"
	OIDifInOctets      = "1.3.6.1.2.1.2.2.1.10.1"
	OIDifOutOctets     = "1.3.6.1.2.1.2.2.1.16.1"
	OIDifOperStatus    = "1.3.6.1.2.1.2.2.1.8.1"
)

// PollOIDs is the set of OIDs requested for every device.
var PollOIDs = []string{
	OIDsysUpTime,
	OIDhrProcessorLoad,
	OIDhrStorageSize,
	OIDhrStorageUsed,
	OIDifInOctets,
	OIDifOutOctets,
	OIDifOperStatus,
}

// ifOperStatus values.
const (
	ifOperUp      = 1
	ifOperDown    = 2
	ifOperTesting = 3
)

// Storage table size reported by the agent, in allocation units.
const storageSize = 100 * 1024

// Octets per second carried by one Mbps.
const octetsPerMbps = 1_000_000 / 8

// Seed derives a stable integer from the trailing dotted segment of ip. It
// returns 1 when that segment is missing or not a number.
func Seed(ip string) int {
	idx := strings.LastIndex(ip, ".")
	if idx < 0 {
		return 1
	}
	n, err := strconv.Atoi(ip[idx+1:])
	if err != nil {
		return 1
	}
	return n
}

// BaseLoad is the deterministic CPU and memory baseline for a seed.
func BaseLoad(seed int) int {
	b := (seed * 7) % 60
	if b < 0 {
		b += 60
	}
	return b
}

// normalizeOID strips the leading dot gosnmp puts on response names.
func normalizeOID(name string) string {
	return strings.TrimPrefix(name, ".")
}

// formatUptime renders sysUpTime TimeTicks (hundredths of a second) as
// "<days>d <hours>h".
func formatUptime(ticks uint64) string {
	secs := ticks / 100
	days := secs / 86400
	hours := (secs % 86400) / 3600
	return fmt.Sprintf("%dd %dh", days, hours)
}

func clampPercent(v int64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}

func operStatus(v int64) (topology.Status, bool) {
	switch v {
	case ifOperUp:
		return topology.StatusUp, true
	case ifOperDown:
		return topology.StatusDown, true
	case ifOperTesting:
		return topology.StatusWarning, true
	default:
		return "", false
	}
}

func operStatusValue(s topology.Status) int {
	switch s {
	case topology.StatusUp:
		return ifOperUp
	case topology.StatusWarning:
		return ifOperTesting
	default:
		return ifOperDown
	}
}

// NewSNMPClient returns the v2c client settings a device would be polled
// with. The poll cycle never connects it; the agent stamps the same version
// and community on the packets it fabricates.
func NewSNMPClient(d topology.Device) *gosnmp.GoSNMP {
	community := d.SNMPCommunity
	if community == "" {
		community = topology.DefaultCommunity
	}
	return &gosnmp.GoSNMP{
		Target:    d.IP,
		Port:      161,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   gosnmp.Default.Timeout,
		Retries:   gosnmp.Default.Retries,
	}
}
