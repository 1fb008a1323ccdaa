package discovery

import (
	"context"
	"time"

	"github.com/gosnmp/gosnmp"
)

// sysNameOID is the standard MIB-II system name object.
const sysNameOID = "1.3.6.1.2.1.1.5.0"

// sysNameQuerier fetches a host's SNMP system name. Enrichment is best
// effort; any failure reports not-found.
type sysNameQuerier interface {
	SysName(ctx context.Context, ip, community string, timeout time.Duration) (string, bool)
}

type snmpQuery struct{}

// SysName issues a single v2c GetRequest for sysName. Clients are not
// concurrency safe, so each query builds its own.
func (snmpQuery) SysName(ctx context.Context, ip, community string, timeout time.Duration) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	default:
	}

	client := &gosnmp.GoSNMP{
		Target:    ip,
		Port:      gosnmp.Default.Port,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   0,
		Transport: "udp",
	}
	if err := client.Connect(); err != nil {
		return "", false
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{sysNameOID})
	if err != nil || result == nil || result.Error != gosnmp.NoError {
		return "", false
	}
	for _, variable := range result.Variables {
		if variable.Type == gosnmp.OctetString {
			if bytes, ok := variable.Value.([]byte); ok && len(bytes) > 0 {
				return string(bytes), true
			}
		}
	}
	return "", false
}
