package handlers

import (
	"net/http"

	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
	"github.com/onnwee/resep-nusantara/backend/internal/cache"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/middleware"
	"github.com/onnwee/resep-nusantara/backend/internal/querycache"
)

// CacheAdminHandler handles cache administration endpoints.
type CacheAdminHandler struct {
	query    *querycache.Cache
	fallback cache.Cache
}

// NewCacheAdminHandler creates a new cache admin handler. fallback may be nil.
func NewCacheAdminHandler(qc *querycache.Cache, fallback cache.Cache) *CacheAdminHandler {
	return &CacheAdminHandler{query: qc, fallback: fallback}
}

// InvalidateRequest names exactly one query cache target. Fallback also
// clears the network fallback store.
type InvalidateRequest struct {
	Key      string `json:"key,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Category string `json:"category,omitempty"`
	Lists    bool   `json:"lists,omitempty"`
	All      bool   `json:"all,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

func (req InvalidateRequest) targets() int {
	n := 0
	for _, set := range []bool{req.Key != "", req.Prefix != "", req.Category != "", req.Lists, req.All} {
		if set {
			n++
		}
	}
	return n
}

// InvalidateResponse reports what an invalidation removed.
type InvalidateResponse struct {
	Kind            querycache.InvalidationKind `json:"kind"`
	Target          string                      `json:"target,omitempty"`
	Removed         int                         `json:"removed"`
	FallbackCleared bool                        `json:"fallback_cleared"`
}

// InvalidateCache removes query cache entries.
// POST /api/admin/cache/invalidate
func (h *CacheAdminHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if aerr := middleware.DecodeJSON(r, &req, false); aerr != nil {
		apierr.WriteErrorWithContext(w, r, aerr)
		return
	}
	if req.targets() != 1 {
		apierr.WriteErrorWithContext(w, r,
			apierr.CacheInvalidRequest("exactly one of key, prefix, category, lists or all is required"))
		return
	}

	var resp InvalidateResponse
	switch {
	case req.Key != "":
		resp = InvalidateResponse{Kind: querycache.KindKey, Target: req.Key, Removed: h.query.Invalidate(req.Key)}
	case req.Prefix != "":
		resp = InvalidateResponse{Kind: querycache.KindPrefix, Target: req.Prefix,
			Removed: h.query.InvalidatePrefix(req.Prefix)}
	case req.Category != "":
		cat, err := querycache.ParseCategory(req.Category)
		if err != nil {
			apierr.WriteErrorWithContext(w, r, apierr.CacheInvalidRequest(err.Error()))
			return
		}
		resp = InvalidateResponse{Kind: querycache.KindCategory, Target: string(cat),
			Removed: h.query.InvalidateCategory(cat)}
	case req.Lists:
		resp = InvalidateResponse{Kind: querycache.KindCategory, Target: string(querycache.CategoryList),
			Removed: h.query.InvalidateListCaches()}
	case req.All:
		resp = InvalidateResponse{Kind: querycache.KindAll, Removed: h.query.Clear()}
	}

	if req.Fallback && h.fallback != nil {
		h.fallback.Clear()
		resp.FallbackCleared = true
	}

	logger.InfoContext(r.Context(), "cache invalidated by admin",
		"kind", resp.Kind, "target", resp.Target, "removed", resp.Removed, "fallback", resp.FallbackCleared)
	writeJSON(w, http.StatusOK, resp)
}

// CacheStatsResponse is returned by GetCacheStats.
type CacheStatsResponse struct {
	Query    querycache.Stats `json:"query"`
	Fallback *cache.Stats     `json:"fallback,omitempty"`
}

// GetCacheStats returns current cache statistics.
// GET /api/admin/cache/stats
func (h *CacheAdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	resp := CacheStatsResponse{Query: h.query.Stats()}
	if h.fallback != nil {
		fs := h.fallback.Stats()
		resp.Fallback = &fs
	}
	writeJSON(w, http.StatusOK, resp)
}
