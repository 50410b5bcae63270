package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/logai/logai/pkg/discover"
)

// Fingerprint derives the cache key for a search.
//
// The key is a sha256 over a canonical JSON form of the resolved service
// names (sorted), the literal pattern, and the window endpoints in RFC3339
// UTC. Two requests that resolve to the same service set, pattern, and
// window always produce the same key regardless of how the caller spelled
// or ordered the service queries.
func Fingerprint(services []string, pattern string, w discover.Window) string {
	names := append([]string(nil), services...)
	sort.Strings(names)

	canon := struct {
		Pattern  string   `json:"pattern"`
		Services []string `json:"services"`
		Window   struct {
			End   string `json:"end"`
			Start string `json:"start"`
		} `json:"window"`
	}{
		Pattern:  pattern,
		Services: names,
	}
	canon.Window.Start = w.Start.UTC().Format(time.RFC3339)
	canon.Window.End = w.End.UTC().Format(time.RFC3339)

	data, err := json.Marshal(canon)
	if err != nil {
		// The canonical form contains only strings; this cannot fail.
		panic("search: fingerprint marshal: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
