package timeentries

import (
	"context"
	"fmt"
	"math"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/davidvv/openproject-mcp-server/openproject"
)

// topWorkPackages caps the by_work_package breakdown.
const topWorkPackages = 10

// DateRange bounds a report.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ReportSummary totals the report.
type ReportSummary struct {
	TotalEntries int       `json:"total_entries"`
	TotalHours   float64   `json:"total_hours"`
	DateRange    DateRange `json:"date_range"`
}

// Breakdown groups hours by dimension. Ordered maps keep the JSON
// output sorted: by hours descending, except by_date which is
// chronological.
type Breakdown struct {
	ByUser        *orderedmap.OrderedMap[string, float64] `json:"by_user"`
	ByActivity    *orderedmap.OrderedMap[string, float64] `json:"by_activity"`
	ByWorkPackage *orderedmap.OrderedMap[string, float64] `json:"by_work_package"`
	ByDate        *orderedmap.OrderedMap[string, float64] `json:"by_date"`
}

type ReportResponse struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Summary   ReportSummary `json:"summary"`
	Breakdown Breakdown     `json:"breakdown"`
}

func (p *Provider) report(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	entries, err := p.client.ListTimeEntries(ctx, openproject.TimeEntryFilter{
		WorkPackageID: req.WorkPackageID,
		ProjectID:     req.ProjectID,
		UserID:        req.UserID,
		From:          req.FromDate,
		To:            req.ToDate,
	})
	if err != nil {
		return nil, err
	}

	var totalHours float64
	byUser := map[string]float64{}
	byActivity := map[string]float64{}
	byWorkPackage := map[string]float64{}
	byDate := map[string]float64{}

	for i := range entries {
		entry := &entries[i]
		hours := openproject.ParseHours(entry.Hours)
		totalHours += hours

		byUser[entry.Links.User.TitleOr("Unknown")] += hours
		byActivity[entry.Links.Activity.TitleOr("Unknown")] += hours
		byWorkPackage[entry.Links.WorkPackage.TitleOr("Unknown")] += hours

		spentOn := entry.SpentOn
		if spentOn == "" {
			spentOn = "Unknown"
		}
		byDate[spentOn] += hours
	}

	from := req.FromDate
	if from == "" {
		from = "all time"
	}
	to := req.ToDate
	if to == "" {
		to = "present"
	}

	return &ReportResponse{
		Success: true,
		Message: fmt.Sprintf("Time tracking report%s", filterSuffix(
			req.WorkPackageID, req.ProjectID, req.UserID, req.FromDate, req.ToDate)),
		Summary: ReportSummary{
			TotalEntries: len(entries),
			TotalHours:   round2(totalHours),
			DateRange:    DateRange{From: from, To: to},
		},
		Breakdown: Breakdown{
			ByUser:        sortByHours(byUser, 0),
			ByActivity:    sortByHours(byActivity, 0),
			ByWorkPackage: sortByHours(byWorkPackage, topWorkPackages),
			ByDate:        sortByKey(byDate),
		},
	}, nil
}

// sortByHours orders the groups by hours descending, name ascending on
// ties. A positive limit keeps only the largest groups.
func sortByHours(groups map[string]float64, limit int) *orderedmap.OrderedMap[string, float64] {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if groups[keys[i]] != groups[keys[j]] {
			return groups[keys[i]] > groups[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	om := orderedmap.New[string, float64](len(keys))
	for _, k := range keys {
		om.Set(k, round2(groups[k]))
	}
	return om
}

// sortByKey orders the groups chronologically by date key.
func sortByKey(groups map[string]float64) *orderedmap.OrderedMap[string, float64] {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	om := orderedmap.New[string, float64](len(keys))
	for _, k := range keys {
		om.Set(k, round2(groups[k]))
	}
	return om
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
