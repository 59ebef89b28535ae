// Package fingerprint derives a stable pseudo-identity for an anonymous client
// from environment signals. The result is neither unique nor permanent: clients
// that clear their storage get a new one.
package fingerprint

import (
	"strings"

	"github.com/akshadjaiswal/hot-takes-arena/pkg/hash"
)

const (
	// StorageKey is the client-side storage key for a persisted fingerprint.
	StorageKey = "hot_takes_device_fp"

	separator = "|||"

	SentinelUnknown = "unknown"
	SentinelCanvas  = "canvas-blocked"
	SentinelWebGL   = "webgl-blocked"
)

// Signals are the client-observable inputs to a fingerprint.
type Signals struct {
	UserAgent           string
	Screen              string // "WxHxDepth"
	Timezone            string
	Language            string
	Platform            string
	HardwareConcurrency string
	DeviceMemory        string
	Canvas              string // canvas render snapshot (data URL)
	WebGL               string // "vendor~renderer"
}

// components returns the ordered signal list. Missing values are replaced by
// sentinels so the hashed input always has the same shape.
func (s Signals) components() []string {
	return []string{
		orSentinel(s.UserAgent, SentinelUnknown),
		orSentinel(s.Screen, SentinelUnknown),
		orSentinel(s.Timezone, SentinelUnknown),
		orSentinel(s.Language, SentinelUnknown),
		orSentinel(s.Platform, SentinelUnknown),
		orSentinel(s.HardwareConcurrency, SentinelUnknown),
		orSentinel(s.DeviceMemory, SentinelUnknown),
		orSentinel(s.Canvas, SentinelCanvas),
		orSentinel(s.WebGL, SentinelWebGL),
	}
}

// Generate returns the hex SHA256 of the delimiter-joined signals.
func Generate(s Signals) string {
	return hash.SHA256Hex(strings.Join(s.components(), separator))
}

// FromRequestHeaders builds the signals a server can observe on its own. It is
// the fallback identity for clients that did not send a fingerprint. The whole
// Accept-Language value is kept since it varies more than its first tag.
func FromRequestHeaders(userAgent, acceptLanguage string) Signals {
	return Signals{
		UserAgent: strings.TrimSpace(userAgent),
		Language:  strings.TrimSpace(acceptLanguage),
	}
}

// GenerateScoped hashes the signals together with a network scope, normally the
// client's ip hash. Server-derived signals alone are shared by every client on
// the same browser build.
func GenerateScoped(scope string, s Signals) string {
	return hash.SHA256Hex(orSentinel(scope, SentinelUnknown) + separator + Generate(s))
}

func orSentinel(v, sentinel string) string {
	if strings.TrimSpace(v) == "" {
		return sentinel
	}
	return v
}
