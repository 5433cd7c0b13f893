package imageman

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
)

// Reference is a deterministic content-addressable identifier for an
// image, derived from a logical name, a source and optional extra
// attributes. Equal inputs under the same configured service always
// produce the same hash, so it doubles as a deduplication key.
//
// The derivation is a wire contract shared with other imageman clients:
// merge {name, source, service} with the opts, drop empty values, sort
// the entries by key, join the values with ":" and take the hex MD5.
// MD5 is used as a stable 128-bit dedup digest here, not for security.
type Reference struct {
	Name   string
	Source string
	Opts   map[string]string

	service       string
	assetImageURL string

	once sync.Once
	hash string
}

// NewReference builds a reference under the given configuration. The
// value is immutable once built; the hash is computed on first use and
// cached.
func NewReference(cfg Config, name, source string, opts map[string]string) *Reference {
	return &Reference{
		Name:          name,
		Source:        source,
		Opts:          opts,
		service:       cfg.service(),
		assetImageURL: cfg.AssetImageURL,
	}
}

// Hash returns the content hash identifying this reference.
func (r *Reference) Hash() string {
	r.once.Do(func() {
		args := make(map[string]string, len(r.Opts)+3)
		for k, v := range r.Opts {
			args[k] = v
		}
		// reserved keys always win over opts
		args["name"] = r.Name
		args["source"] = r.Source
		args["service"] = r.service

		keys := make([]string, 0, len(args))
		for k, v := range args {
			if v == "" {
				continue // absent values never join the digest
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := make([]string, 0, len(keys))
		for _, k := range keys {
			values = append(values, args[k])
		}

		sum := md5.Sum([]byte(strings.Join(values, ":")))
		r.hash = hex.EncodeToString(sum[:])
	})
	return r.hash
}

// URL returns the public asset URL the reference resolves to.
func (r *Reference) URL() string {
	return r.assetImageURL + "/" + r.Hash()
}

// ReferenceHash is a shortcut for NewReference(...).Hash().
func ReferenceHash(cfg Config, name, source string, opts map[string]string) string {
	return NewReference(cfg, name, source, opts).Hash()
}

// ReferenceURL is a shortcut for NewReference(...).URL().
func ReferenceURL(cfg Config, name, source string, opts map[string]string) string {
	return NewReference(cfg, name, source, opts).URL()
}
