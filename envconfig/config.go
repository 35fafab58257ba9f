package envconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidHostPort = errors.New("invalid port specified in SUBWORD_HOST")

const (
	defaultHost   = "127.0.0.1"
	defaultPort   = "11435"
	defaultRounds = 10
	defaultMarker = "_"
)

var (
	// Set via SUBWORD_DEBUG in the environment
	Debug bool
	// Verbosity from SUBWORD_DEBUG: 0 when unset or false, 1 for true and
	// the value itself when it is a number
	DebugLevel int
	// Set via SUBWORD_HOST in the environment
	Host *SubwordHost
	// Set via SUBWORD_MARKER in the environment
	Marker string
	// Set via SUBWORD_MAX_PARALLEL in the environment
	MaxParallel int
	// Set via SUBWORD_MODEL in the environment
	Model string
	// Set via SUBWORD_ORIGINS in the environment
	Origins []string
	// Set via SUBWORD_ROUNDS in the environment
	Rounds int
)

type SubwordHost struct {
	Scheme string
	Host   string
	Port   string
}

func (h SubwordHost) String() string {
	return fmt.Sprintf("%s://%s", h.Scheme, net.JoinHostPort(h.Host, h.Port))
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"SUBWORD_DEBUG":        {"SUBWORD_DEBUG", Debug, "Show additional debug information (e.g. SUBWORD_DEBUG=1)"},
		"SUBWORD_HOST":         {"SUBWORD_HOST", Host, "IP Address for the subword server (default 127.0.0.1:11435)"},
		"SUBWORD_MARKER":       {"SUBWORD_MARKER", Marker, "End-of-word marker appended to every word (default \"_\")"},
		"SUBWORD_MAX_PARALLEL": {"SUBWORD_MAX_PARALLEL", MaxParallel, "Maximum number of words segmented concurrently (default 0 = GOMAXPROCS)"},
		"SUBWORD_MODEL":        {"SUBWORD_MODEL", Model, "Path to the default merges file"},
		"SUBWORD_ORIGINS":      {"SUBWORD_ORIGINS", Origins, "A comma separated list of allowed origins"},
		"SUBWORD_ROUNDS":       {"SUBWORD_ROUNDS", Rounds, "Number of merges to learn (default 10)"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value. Unset variables fall back to the
// config file.
func clean(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.Trim(v, "\"' ")
	}

	return strings.Trim(GetConfigValue(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	DebugLevel = 0
	if debug := clean("SUBWORD_DEBUG"); debug != "" {
		if n, err := strconv.Atoi(debug); err == nil {
			DebugLevel = max(n, 0)
		} else if d, err := strconv.ParseBool(debug); err != nil || d {
			DebugLevel = 1
		}
	}
	Debug = DebugLevel > 0

	var err error
	Host, err = getSubwordHost()
	if err != nil {
		slog.Error("invalid setting", "SUBWORD_HOST", Host, "error", err, "using default port", defaultPort)
		Host = &SubwordHost{Scheme: "http", Host: defaultHost, Port: defaultPort}
	}

	Marker = defaultMarker
	if marker := clean("SUBWORD_MARKER"); marker != "" {
		if strings.ContainsFunc(marker, unicode.IsSpace) {
			slog.Error("invalid setting, marker must not contain whitespace", "SUBWORD_MARKER", marker)
		} else {
			Marker = marker
		}
	}

	MaxParallel = 0
	if mp := clean("SUBWORD_MAX_PARALLEL"); mp != "" {
		val, err := strconv.Atoi(mp)
		if err != nil || val < 0 {
			slog.Error("invalid setting, must be zero or greater", "SUBWORD_MAX_PARALLEL", mp, "error", err)
		} else {
			MaxParallel = val
		}
	}

	Model = clean("SUBWORD_MODEL")

	Origins = allowedOrigins()

	Rounds = defaultRounds
	if rounds := clean("SUBWORD_ROUNDS"); rounds != "" {
		val, err := strconv.Atoi(rounds)
		if err != nil || val < 0 {
			slog.Error("invalid setting, must be zero or greater", "SUBWORD_ROUNDS", rounds, "error", err)
		} else {
			Rounds = val
		}
	}
}

func allowedOrigins() (origins []string) {
	if s := clean("SUBWORD_ORIGINS"); s != "" {
		for _, origin := range strings.Split(s, ",") {
			origin = strings.TrimSpace(origin)
			switch {
			case origin == "":
			case origin == "*", strings.HasPrefix(origin, "http://"), strings.HasPrefix(origin, "https://"):
				origins = append(origins, origin)
			default:
				slog.Error("invalid setting, origins must start with http:// or https://", "SUBWORD_ORIGINS", origin)
			}
		}
	}

	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

func getSubwordHost() (*SubwordHost, error) {
	defaultPort := defaultPort

	hostVar := clean("SUBWORD_HOST")
	scheme, hostport, ok := strings.Cut(hostVar, "://")
	switch {
	case !ok:
		scheme, hostport = "http", hostVar
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	// trim trailing slashes
	hostport = strings.TrimRight(hostport, "/")

	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = defaultHost, defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if portNum, err := strconv.ParseInt(port, 10, 32); err != nil || portNum > 65535 || portNum < 0 {
		return &SubwordHost{
			Scheme: scheme,
			Host:   host,
			Port:   port,
		}, ErrInvalidHostPort
	}

	return &SubwordHost{
		Scheme: scheme,
		Host:   host,
		Port:   port,
	}, nil
}
