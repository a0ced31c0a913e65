package ports

import "sort"

// commonServices is the versioned table of well-known ports probed by the
// named "common" set. Labels are display-only; probe selection never reads
// them. The table is built once at init and must not be mutated afterwards,
// so it is safe to share across concurrent probes.
var commonServices = map[int]string{
	20:    "FTP-Data",
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	69:    "TFTP",
	79:    "Finger",
	80:    "HTTP",
	88:    "Kerberos",
	110:   "POP3",
	111:   "RPC",
	119:   "NNTP",
	123:   "NTP",
	135:   "MS-RPC",
	137:   "NetBIOS-NS",
	139:   "NetBIOS",
	143:   "IMAP",
	161:   "SNMP",
	162:   "SNMP-Trap",
	179:   "BGP",
	194:   "IRC",
	389:   "LDAP",
	443:   "HTTPS",
	445:   "SMB",
	465:   "SMTPS",
	500:   "IPSec",
	512:   "rexec",
	514:   "Syslog",
	515:   "LPD",
	554:   "RTSP",
	563:   "NNTPS",
	587:   "SMTP-Submit",
	631:   "IPP",
	636:   "LDAPS",
	873:   "rsync",
	902:   "VMware",
	990:   "FTPS",
	993:   "IMAPS",
	995:   "POP3S",
	1080:  "SOCKS",
	1194:  "OpenVPN",
	1433:  "MSSQL",
	1521:  "Oracle",
	1723:  "PPTP",
	1883:  "MQTT",
	1935:  "RTMP",
	2049:  "NFS",
	2121:  "FTP-Proxy",
	2181:  "ZooKeeper",
	2375:  "Docker",
	2376:  "Docker-TLS",
	3000:  "Dev-Server",
	3128:  "Squid",
	3268:  "LDAP-GC",
	3269:  "LDAP-GC-SSL",
	3306:  "MySQL",
	3389:  "RDP",
	4000:  "Dev-Server",
	4369:  "EPMD",
	4500:  "IPSec-NAT",
	5000:  "Dev-Server",
	5044:  "Beats",
	5060:  "SIP",
	5061:  "SIP-TLS",
	5222:  "XMPP",
	5432:  "PostgreSQL",
	5601:  "Kibana",
	5671:  "AMQPS",
	5672:  "AMQP",
	5900:  "VNC",
	5984:  "CouchDB",
	6000:  "X11",
	6379:  "Redis",
	6443:  "Kube-API",
	6667:  "IRC",
	7001:  "Cassandra",
	7077:  "Spark",
	7777:  "Game-Server",
	8000:  "HTTP-Alt",
	8001:  "HTTP-Alt",
	8008:  "HTTP-Alt",
	8009:  "AJP",
	8080:  "HTTP-Proxy",
	8081:  "HTTP-Alt",
	8086:  "InfluxDB",
	8088:  "HTTP-Alt",
	8090:  "HTTP-Alt",
	8161:  "ActiveMQ",
	8181:  "HTTP-Alt",
	8443:  "HTTPS-Alt",
	8500:  "Consul",
	8554:  "RTSP-Alt",
	8888:  "HTTP-Alt",
	9000:  "App-Server",
	9001:  "App-Server",
	9042:  "Cassandra-CQL",
	9080:  "HTTP-Alt",
	9090:  "Prometheus",
	9091:  "Pushgateway",
	9092:  "Kafka",
	9093:  "Alertmanager",
	9100:  "Node-Exporter",
	9200:  "Elasticsearch",
	9300:  "Elasticsearch",
	9418:  "Git",
	9443:  "HTTPS-Alt",
	9999:  "App-Server",
	10000: "Webmin",
	11211: "Memcached",
	15672: "RabbitMQ-Mgmt",
	25565: "Minecraft",
	27015: "Steam",
	27017: "MongoDB",
	27018: "MongoDB",
	27019: "MongoDB",
	50000: "SAP",
	50070: "HDFS",
}

var commonSorted []int

func init() {
	commonSorted = make([]int, 0, len(commonServices))
	for p := range commonServices {
		commonSorted = append(commonSorted, p)
	}
	sort.Ints(commonSorted)
}

// Common returns the common-port set in ascending order. The returned slice
// is a copy; callers may reorder it freely.
func Common() []int {
	out := make([]int, len(commonSorted))
	copy(out, commonSorted)
	return out
}

// ServiceName returns the display label for a port, or "unknown".
func ServiceName(port int) string {
	if name, ok := commonServices[port]; ok {
		return name
	}
	return "unknown"
}
