package api

import (
	"fmt"
	"net/http"

	"github.com/nerrad567/availwatch/internal/report"
)

// documentResponse carries one rendered markdown document, reassembled
// from its paginated attribute form.
type documentResponse struct {
	Count int      `json:"count"`
	Icon  string   `json:"icon"`
	Pages []string `json:"pages"`
}

// handleGetReport returns the most recent evaluation: count, icon, and
// the full attribute bag including paginated markdown.
func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.LastReport())
}

// handleReportDevices returns the devices document pages.
func (s *Server) handleReportDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, documentPages(s.reports.LastReport(), "devices"))
}

// handleReportEntities returns the entities document pages.
func (s *Server) handleReportEntities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, documentPages(s.reports.LastReport(), "entities"))
}

// documentPages extracts one document's pages from the attribute bag.
// Page attributes are 1-based with a sibling page count.
func documentPages(rep report.Report, prefix string) documentResponse {
	resp := documentResponse{
		Count: rep.Count,
		Icon:  rep.Icon,
		Pages: []string{},
	}

	total, ok := rep.Attributes[prefix+"_pages"].(int)
	if !ok {
		return resp
	}
	for i := 1; i <= total; i++ {
		page, ok := rep.Attributes[fmt.Sprintf("%s_page_%d", prefix, i)].(string)
		if !ok {
			break
		}
		resp.Pages = append(resp.Pages, page)
	}
	return resp
}
