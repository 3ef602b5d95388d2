package predictor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"predictd/pkg/types"
)

// resultCache is a TTL cache of outputs keyed by a hash of the model,
// variant and normalized input. A nil cache is disabled.
type resultCache struct {
	cache *ttlcache.Cache[string, string]
}

func newResultCache(ttl time.Duration, capacity uint64) *resultCache {
	if ttl <= 0 {
		return nil
	}
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithCapacity[string, string](capacity),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &resultCache{cache: c}
}

func (rc *resultCache) get(key string) (string, bool) {
	if rc == nil || key == "" {
		return "", false
	}
	item := rc.cache.Get(key)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

func (rc *resultCache) set(key, output string) {
	if rc == nil || key == "" {
		return
	}
	rc.cache.Set(key, output, ttlcache.DefaultTTL)
}

func (rc *resultCache) len() int {
	if rc == nil {
		return 0
	}
	return rc.cache.Len()
}

func (rc *resultCache) close() {
	if rc == nil {
		return
	}
	rc.cache.Stop()
	rc.cache.DeleteAll()
}

// deterministic reports whether the same input always yields the same
// output: greedy decoding, or a fixed seed where the variant accepts one.
func deterministic(v Variant, in types.PredictInput) bool {
	if in.Temperature == 0 {
		return true
	}
	return v == VariantStream && in.RandomSeed != 0
}

// cacheKey returns the key for in, or "" when in is not deterministic.
func cacheKey(v Variant, modelID string, in types.PredictInput) string {
	if !deterministic(v, in) {
		return ""
	}
	b, err := json.Marshal(struct {
		Variant Variant            `json:"variant"`
		Model   string             `json:"model"`
		Input   types.PredictInput `json:"input"`
	}{v, modelID, in})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
