package redis

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPort = "6379"

// Settings is a parsed connection string.
type Settings struct {
	Options goredis.UniversalOptions
	// AbortConnect makes building a handle fail when the first PING fails.
	// When false, connection problems surface on the first command instead.
	AbortConnect bool
}

// ConnStringError reports a malformed connection string. The offending
// value is never included since it may be a password.
type ConnStringError struct {
	Option string
	Reason string
}

func (e *ConnStringError) Error() string {
	if e.Option == "" {
		return "redis connection string: " + e.Reason
	}
	return fmt.Sprintf("redis connection string: option %q: %s", e.Option, e.Reason)
}

// ParseConnString accepts either a redis:// (rediss://, unix://) URL or the
// comma-separated form
//
//	host1:6379,host2,password=secret,ssl=true,abortConnect=false
//
// where bare tokens are endpoints (default port 6379) and key=value tokens
// are options. More than one endpoint selects a cluster client; serviceName
// selects a sentinel-backed failover client.
func ParseConnString(s string) (Settings, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Settings{}, &ConnStringError{Reason: "empty"}
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "redis://") || strings.HasPrefix(lower, "rediss://") || strings.HasPrefix(lower, "unix://") {
		return parseURL(s)
	}
	return parseOptions(s)
}

func parseURL(s string) (Settings, error) {
	o, err := goredis.ParseURL(s)
	if err != nil {
		// url errors quote the input, credentials included
		return Settings{}, &ConnStringError{Reason: "invalid URL"}
	}
	return Settings{
		Options: goredis.UniversalOptions{
			Addrs:        []string{o.Addr},
			ClientName:   o.ClientName,
			Username:     o.Username,
			Password:     o.Password,
			DB:           o.DB,
			DialTimeout:  o.DialTimeout,
			ReadTimeout:  o.ReadTimeout,
			WriteTimeout: o.WriteTimeout,
			PoolSize:     o.PoolSize,
			MinIdleConns: o.MinIdleConns,
			TLSConfig:    o.TLSConfig,
		},
		AbortConnect: true,
	}, nil
}

func parseOptions(s string) (Settings, error) {
	st := Settings{AbortConnect: true}
	o := &st.Options
	var (
		useTLS  bool
		sslHost string
	)

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			addr, err := endpoint(part)
			if err != nil {
				return Settings{}, err
			}
			o.Addrs = append(o.Addrs, addr)
			continue
		}
		name := strings.TrimSpace(k)
		v = strings.TrimSpace(v)

		var (
			err    error
			reason string
		)
		switch strings.ToLower(name) {
		case "password":
			o.Password = v
		case "user":
			o.Username = v
		case "name":
			o.ClientName = v
		case "servicename":
			o.MasterName = v
		case "defaultdatabase":
			o.DB, err = strconv.Atoi(v)
			reason = "not an integer"
		case "ssl":
			useTLS, err = strconv.ParseBool(v)
			reason = "not a boolean"
		case "sslhost":
			sslHost = v
		case "abortconnect":
			st.AbortConnect, err = strconv.ParseBool(v)
			reason = "not a boolean"
		case "connecttimeout":
			o.DialTimeout, err = millis(v)
			reason = "not a non-negative millisecond count"
		case "synctimeout", "asynctimeout":
			var d time.Duration
			d, err = millis(v)
			o.ReadTimeout, o.WriteTimeout = d, d
			reason = "not a non-negative millisecond count"
		case "allowadmin", "keepalive", "connectretry", "resolvedns", "tiebreaker", "version":
			// accepted for compatibility; go-redis has no equivalent knob
		default:
			return Settings{}, &ConnStringError{Option: name, Reason: "unknown option"}
		}
		if err != nil {
			return Settings{}, &ConnStringError{Option: name, Reason: reason}
		}
	}

	if len(o.Addrs) == 0 {
		return Settings{}, &ConnStringError{Reason: "no endpoint"}
	}
	if useTLS {
		if sslHost == "" {
			sslHost, _, _ = net.SplitHostPort(o.Addrs[0])
		}
		o.TLSConfig = &tls.Config{ServerName: sslHost, MinVersion: tls.VersionTLS12}
	}
	return st, nil
}

func endpoint(s string) (string, error) {
	if _, _, err := net.SplitHostPort(s); err == nil {
		return s, nil
	}
	host := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if host == "" || strings.ContainsAny(host, " /") {
		return "", &ConnStringError{Reason: "invalid endpoint"}
	}
	return net.JoinHostPort(host, defaultPort), nil
}

func millis(v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative timeout")
	}
	return time.Duration(n) * time.Millisecond, nil
}
