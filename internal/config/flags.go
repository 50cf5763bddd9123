package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a API endpoint address in format [host]:[port]
//	-ws realtime websocket address
//	-d local database DSN (SQLite file path)
//	-c/-config json file path with configs
//	-request-timeout request timeout (e.g., "15s")
//	-typing-debounce minimum gap between local typing_start emissions
//	-typing-expiry remote typing indicator lifetime
//	-refresh-leeway proactive token refresh leeway
func ParseFlags() *StructuredConfig {
	var apiAddress NetAddress
	var realtimeAddress string
	var databaseDSN string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var typingDebounce time.Duration
	var typingExpiry time.Duration
	var refreshLeeway time.Duration

	flag.Var(&apiAddress, "a", "API net address host:port")
	flag.StringVar(&realtimeAddress, "ws", "", "Realtime websocket address")
	flag.StringVar(&databaseDSN, "d", "", "Local database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")
	flag.DurationVar(&typingDebounce, "typing-debounce", 0, "Typing debounce window (e.g., 2s)")
	flag.DurationVar(&typingExpiry, "typing-expiry", 0, "Remote typing indicator lifetime (e.g., 3s)")
	flag.DurationVar(&refreshLeeway, "refresh-leeway", 0, "Proactive token refresh leeway (e.g., 30s)")

	flag.Parse()

	return &StructuredConfig{
		API: API{
			Address:        apiAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Realtime: Realtime{
			Address: realtimeAddress,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Presence: Presence{
			TypingDebounce: typingDebounce,
			TypingExpiry:   typingExpiry,
		},
		Workers: Workers{
			RefreshLeeway: refreshLeeway,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress, or an
// empty string when neither Host nor Port are set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the
// NetAddress. It validates the port range, checks IP correctness unless
// the host is "localhost" or a DNS name, and returns an error if the
// format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && !isHostname(host) {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

func isHostname(host string) bool {
	if host == "" {
		return false
	}
	for _, r := range host {
		if r != '.' && r != '-' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	// a purely numeric host must be parsed as an IP instead
	return strings.ContainsFunc(host, func(r rune) bool {
		return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
	})
}
