package chi

import (
	"github.com/kailas-cloud/tosarchive/internal/domain/activity"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
	"github.com/kailas-cloud/tosarchive/internal/domain/timeline"
	cataloguc "github.com/kailas-cloud/tosarchive/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/tosarchive/internal/usecase/health"
)

// VersionAtDateResponse is the body of GET /get_version_at_date.
type VersionAtDateResponse struct {
	Service       string        `json:"service"`
	DocType       string        `json:"doc_type"`
	Date          string        `json:"date"`
	VersionAtDate snapshot.Mark `json:"version_at_date"`
	Data          string        `json:"data"`
	NextVersion   snapshot.Mark `json:"next_version"`
}

// StatsRow is one element of GET /stats.
type StatsRow struct {
	Service      string `json:"service"`
	DocumentType string `json:"document_type"`
	CapturedAt   string `json:"captured_at"`
}

// MonthlyStats is one element of GET /graph_services.
type MonthlyStats struct {
	YearMonth        string `json:"year_month"`
	NServicesActive  int    `json:"n_services_active"`
	NServicesTracked int    `json:"n_services_tracked"`
}

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	DatasetURL  string `json:"dataset_url"`
	DatasetDate string `json:"dataset_date"`
	APIVersion  string `json:"api_version"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func versionAtDateToDTO(v timeline.VersionAtDate) VersionAtDateResponse {
	return VersionAtDateResponse{
		Service:       v.Service(),
		DocType:       v.DocumentType(),
		Date:          v.QueriedAt().Format(snapshot.WireLayout),
		VersionAtDate: v.Version(),
		Data:          v.Data(),
		NextVersion:   v.Next(),
	}
}

// allOccurrencesToDTO renders capture keys in the same ISO layout as marks.
func allOccurrencesToDTO(idx termindex.AllOccurrences) map[string]map[string]map[string]bool {
	out := make(map[string]map[string]map[string]bool, len(idx))
	for svc, docs := range idx {
		outDocs := make(map[string]map[string]bool, len(docs))
		for doc, versions := range docs {
			outVersions := make(map[string]bool, len(versions))
			for at, matched := range versions {
				outVersions[at.UTC().Format(snapshot.WireLayout)] = matched
			}
			outDocs[doc] = outVersions
		}
		out[svc] = outDocs
	}
	return out
}

func statsToDTO(rows []activity.Row) []StatsRow {
	out := make([]StatsRow, len(rows))
	for i, r := range rows {
		out[i] = StatsRow{
			Service:      r.Service,
			DocumentType: r.DocumentType,
			CapturedAt:   r.CapturedAt.UTC().Format(snapshot.WireLayout),
		}
	}
	return out
}

func monthlyToDTO(months []activity.Month) []MonthlyStats {
	out := make([]MonthlyStats, len(months))
	for i, m := range months {
		out[i] = MonthlyStats{
			YearMonth:        m.YearMonth,
			NServicesActive:  m.ServicesActive,
			NServicesTracked: m.ServicesTracked,
		}
	}
	return out
}

func infoToDTO(info cataloguc.Info) VersionResponse {
	return VersionResponse{
		DatasetURL:  info.DatasetURL,
		DatasetDate: info.DatasetDate,
		APIVersion:  info.APIVersion,
	}
}

func healthToDTO(report healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(report.Status), Checks: checks}
}
