package api

import (
	"net/http"

	"github.com/ayusman/facepoint/internal/region"
)

// RegionHandler serves the region lookup table.
type RegionHandler struct {
	table     region.Table
	threshold float64
}

// NewRegionHandler creates a RegionHandler for table and the classifier threshold.
func NewRegionHandler(table region.Table, threshold float64) *RegionHandler {
	return &RegionHandler{table: table, threshold: threshold}
}

type regionResponse struct {
	Name      string `json:"name"`
	Landmarks []int  `json:"landmarks"`
	Count     int    `json:"count"`
}

type listRegionsResponse struct {
	Threshold float64          `json:"threshold"`
	Regions   []regionResponse `json:"regions"`
}

// ServeHTTP handles GET /api/regions.
func (h *RegionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := h.table.Names()
	response := listRegionsResponse{
		Threshold: h.threshold,
		Regions:   make([]regionResponse, 0, len(names)),
	}
	for _, name := range names {
		indices := h.table.Indices(name)
		response.Regions = append(response.Regions, regionResponse{
			Name:      string(name),
			Landmarks: indices,
			Count:     len(indices),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
