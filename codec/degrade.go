package codec

import "github.com/Henry5410858/design-sub000/core"

// Default size limits. The server threshold matches what the record/blob
// backends comfortably take per payload; the cache threshold is the much
// smaller budget of the client-side cache tier.
const (
	DefaultServerLimit = 2 << 20  // 2 MiB
	DefaultCacheLimit  = 512 << 10 // 512 KiB
	DefaultTruncateCap = 25
	// InlineObjectCap bounds how many objects are duplicated onto the
	// record for the inline fallback path.
	InlineObjectCap = 25
)

type (
	// Limits configures the degradation thresholds.
	Limits struct {
		Server      int
		Cache       int
		TruncateCap int
	}

	// Flags reports which degradation steps were applied. Callers surface
	// them to the user; no step is ever silent.
	Flags struct {
		Optimized    bool `json:"optimized"`
		Truncated    bool `json:"truncated"`
		SkippedCache bool `json:"skippedCache"`
	}

	// Payload is a bounded encoding of a document: the server-bound bytes,
	// the (possibly absent) cache-tier bytes, the inline object duplicate
	// for the record, and the flags describing what it took to get there.
	Payload struct {
		Data          []byte
		InlineObjects []byte
		Flags         Flags

		cache []byte
	}
)

// DefaultLimits returns the production thresholds.
func DefaultLimits() Limits {
	return Limits{Server: DefaultServerLimit, Cache: DefaultCacheLimit, TruncateCap: DefaultTruncateCap}
}

func (l Limits) withDefaults() Limits {
	if l.Server <= 0 {
		l.Server = DefaultServerLimit
	}
	if l.Cache <= 0 {
		l.Cache = DefaultCacheLimit
	}
	if l.TruncateCap <= 0 {
		l.TruncateCap = DefaultTruncateCap
	}
	return l
}

// CacheForm returns the bytes destined for the cache tier, or nil when the
// tier was skipped.
func (p *Payload) CacheForm() []byte { return p.cache }

// EncodeBounded encodes a document under the given limits, degrading in
// strictly increasing aggressiveness:
//
//  1. full encode — used as-is when it fits the server threshold;
//  2. optimize — defaults dropped from every object;
//  3. truncate — only the first TruncateCap objects survive and the
//     payload is marked minimal.
//
// The cache tier then takes the first form (from the chosen one onward)
// that fits its smaller threshold, or is skipped entirely. Degradation
// itself never fails; each successive form is no larger than the previous.
func EncodeBounded(doc *core.Document, limits Limits) (*Payload, error) {
	limits = limits.withDefaults()

	full, err := Encode(doc)
	if err != nil {
		return nil, err
	}

	p := &Payload{Data: full}
	forms := [][]byte{full}

	if len(p.Data) > limits.Server {
		optimized, err := encodeDocument(doc, true, -1)
		if err != nil {
			return nil, err
		}
		p.Data = optimized
		p.Flags.Optimized = true
		forms = append(forms, optimized)
	}

	if len(p.Data) > limits.Server {
		truncated, err := encodeDocument(doc, true, limits.TruncateCap)
		if err != nil {
			return nil, err
		}
		p.Data = truncated
		p.Flags.Truncated = true
		forms = append(forms, truncated)
	}

	// The cache tier takes the server form when it fits, otherwise the
	// truncated form, otherwise nothing. Cached bytes are never larger
	// than stored bytes.
	switch {
	case len(p.Data) <= limits.Cache:
		p.cache = p.Data
	default:
		truncated := forms[len(forms)-1]
		if !p.Flags.Truncated {
			truncated, err = encodeDocument(doc, true, limits.TruncateCap)
			if err != nil {
				return nil, err
			}
		}
		if len(truncated) <= limits.Cache {
			p.cache = truncated
			p.Flags.Optimized = true
			p.Flags.Truncated = true
		} else {
			p.Flags.SkippedCache = true
		}
	}

	p.InlineObjects, err = encodeObjects(doc, InlineObjectCap)
	if err != nil {
		return nil, err
	}
	return p, nil
}
