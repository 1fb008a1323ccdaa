// Package services provides the static port-to-service-name lookup table
// used to annotate scan results. It is a display aid only; absence of a
// mapping is not an error.
package services

// CommonPorts is the default set of well-known ports scanned when no port
// specification is given, in declaration order.
var CommonPorts = []int{
	20, 21, 22, 23, 25, 53, 80, 110, 143, 443,
	445, 3306, 3389, 5432, 5900, 6379, 8080, 8443, 27017,
}

var names = map[int]string{
	20:    "FTP Data",
	21:    "FTP Control",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	3306:  "MySQL",
	3389:  "RDP",
	5432:  "PostgreSQL",
	5900:  "VNC",
	6379:  "Redis",
	8080:  "HTTP Alt",
	8443:  "HTTPS Alt",
	27017: "MongoDB",
}

// Name returns the service name for a port, if known.
func Name(port int) (string, bool) {
	name, ok := names[port]
	return name, ok
}

// NameOrDefault returns the service name for a port, or the fallback when
// the port is not in the table.
func NameOrDefault(port int, fallback string) string {
	if name, ok := names[port]; ok {
		return name
	}
	return fallback
}
