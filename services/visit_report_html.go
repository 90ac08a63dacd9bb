package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"shop_visit_app_go/models"
)

var visitReportTemplate = template.Must(template.New("visit_report").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Helvetica, Arial, sans-serif;
            font-size: 10pt;
            line-height: 1.4;
            color: #1a1a1a;
        }
        h1 {
            font-size: 16pt;
            margin-bottom: 4pt;
        }
        .subtitle {
            color: #666;
            margin-bottom: 18pt;
        }
        h2 {
            font-size: 12pt;
            border-bottom: 1px solid #ccc;
            padding-bottom: 3pt;
            margin-top: 18pt;
            margin-bottom: 8pt;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 10pt;
        }
        td {
            padding: 3pt 6pt;
            vertical-align: top;
        }
        td.label {
            width: 35%;
            color: #555;
        }
        .score-box {
            display: inline-block;
            padding: 6pt 12pt;
            border: 2px solid #1a1a1a;
            font-size: 14pt;
            font-weight: bold;
        }
        .signature img {
            max-width: 3in;
            border-bottom: 1px solid #000;
        }
        .notes {
            white-space: pre-wrap;
        }
    </style>
</head>
<body>
    <h1>Shop Visit Report</h1>
    <p class="subtitle">{{.ShopName}} &mdash; {{.VisitDate}}</p>

    <h2>Shop Information</h2>
    <table>
        <tr><td class="label">Shop name</td><td>{{.ShopName}}</td></tr>
        <tr><td class="label">Shop type</td><td>{{.ShopType}}</td></tr>
        <tr><td class="label">Address</td><td>{{.Address}}</td></tr>
        <tr><td class="label">Contact person</td><td>{{.ContactPerson}}</td></tr>
        <tr><td class="label">Contact phone</td><td>{{.ContactPhone}}</td></tr>
    </table>

    <h2>Visit Details</h2>
    <table>
        <tr><td class="label">Date</td><td>{{.VisitDate}}</td></tr>
        <tr><td class="label">Duration</td><td>{{.VisitDuration}} minutes</td></tr>
        <tr><td class="label">Purpose</td><td>{{.VisitPurpose}}</td></tr>
    </table>

    <h2>Product Visibility</h2>
    <table>
        <tr><td class="label">Visibility score</td><td>{{.VisibilityScore}}</td></tr>
        <tr><td class="label">Products discussed</td><td>{{.ProductsDiscussed}}</td></tr>
        <tr><td class="label">Competitor presence</td><td>{{.CompetitorPresence}}</td></tr>
    </table>

    <h2>Training &amp; Support</h2>
    <table>
        <tr><td class="label">Training provided</td><td>{{.TrainingProvided}}</td></tr>
        <tr><td class="label">Training topics</td><td>{{.TrainingTopics}}</td></tr>
        <tr><td class="label">Support materials</td><td>{{.SupportMaterials}}</td></tr>
    </table>

    <h2>Commercial Outcome</h2>
    <table>
        <tr><td class="label">Outcome</td><td>{{.CommercialOutcome}}</td></tr>
        <tr><td class="label">Order value</td><td>{{.OrderValue}}</td></tr>
        <tr><td class="label">Overall satisfaction</td><td>{{.Satisfaction}}</td></tr>
    </table>

    {{if .FollowUpRequired}}
    <h2>Follow-up</h2>
    <table>
        <tr><td class="label">Follow-up date</td><td>{{.FollowUpDate}}</td></tr>
        <tr><td class="label">Notes</td><td class="notes">{{.FollowUpNotes}}</td></tr>
    </table>
    {{end}}

    {{if .Notes}}
    <h2>Notes</h2>
    <p class="notes">{{.Notes}}</p>
    {{end}}

    {{if .Score}}
    <h2>Visit Score</h2>
    <p><span class="score-box">{{.Score}} / 100</span> &nbsp; Priority: {{.Priority}}</p>
    {{end}}

    {{if .SignatureImage}}
    <h2>Signature</h2>
    <div class="signature">
        <img src="{{.SignatureImage}}" alt="signature">
        <p>{{.SignerName}}{{if .SignatureDate}} &mdash; {{.SignatureDate}}{{end}}</p>
    </div>
    {{end}}
</body>
</html>`))

type visitReportData struct {
	ShopName           string
	ShopType           string
	Address            string
	ContactPerson      string
	ContactPhone       string
	VisitDate          string
	VisitDuration      int
	VisitPurpose       string
	VisibilityScore    string
	ProductsDiscussed  string
	CompetitorPresence string
	TrainingProvided   string
	TrainingTopics     string
	SupportMaterials   string
	CommercialOutcome  string
	OrderValue         string
	Satisfaction       string
	FollowUpRequired   bool
	FollowUpDate       string
	FollowUpNotes      string
	Notes              string
	Score              string
	Priority           string
	SignatureImage     template.URL
	SignerName         string
	SignatureDate      string
}

// BuildVisitReportHTML renders a submitted visit as a printable HTML
// document for PDF generation.
func BuildVisitReportHTML(visit *models.ShopVisit) (string, error) {
	data := visitReportData{
		ShopName:           visit.ShopName,
		ShopType:           orDash(visit.ShopType),
		Address:            orDash(joinNonEmpty(", ", visit.ShopAddress, visit.City, visit.Zipcode)),
		ContactPerson:      orDash(visit.ContactPerson),
		ContactPhone:       orDash(visit.ContactPhone),
		VisitDate:          visit.VisitDate.Format("January 2, 2006"),
		VisitDuration:      visit.VisitDuration,
		VisitPurpose:       orDash(visit.VisitPurpose),
		VisibilityScore:    "Not answered",
		ProductsDiscussed:  orDash(strings.Join(visit.ProductsDiscussed, ", ")),
		CompetitorPresence: orDash(visit.CompetitorPresence),
		TrainingProvided:   yesNo(visit.TrainingProvided),
		TrainingTopics:     orDash(strings.Join(visit.TrainingTopics, ", ")),
		SupportMaterials:   orDash(strings.Join(visit.SupportMaterialsItems, ", ")),
		CommercialOutcome:  orDash(visit.CommercialOutcome),
		OrderValue:         fmt.Sprintf("%.2f", visit.OrderValue),
		Satisfaction:       "Not answered",
		FollowUpRequired:   visit.FollowUpRequired,
		FollowUpNotes:      visit.FollowUpNotes,
		Notes:              visit.Notes,
	}

	if visit.ProductVisibilityScore != nil {
		data.VisibilityScore = fmt.Sprintf("%d / 100", *visit.ProductVisibilityScore)
	}
	if visit.OverallSatisfaction > 0 {
		data.Satisfaction = fmt.Sprintf("%d / 10", visit.OverallSatisfaction)
	}
	if visit.FollowUpDate != nil {
		data.FollowUpDate = visit.FollowUpDate.Format("January 2, 2006")
	}
	if visit.CalculatedScore != nil {
		data.Score = fmt.Sprintf("%d", *visit.CalculatedScore)
	}
	if visit.PriorityLevel != nil {
		data.Priority = *visit.PriorityLevel
	}
	if visit.Signature != nil && *visit.Signature != "" {
		data.SignatureImage = template.URL(*visit.Signature)
	}
	if visit.SignatureSignerName != nil {
		data.SignerName = *visit.SignatureSignerName
	}
	if visit.SignatureDate != nil {
		data.SignatureDate = visit.SignatureDate.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	if err := visitReportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render visit report: %w", err)
	}
	return buf.String(), nil
}

// GenerateVisitReportPDF renders a visit report to a PDF document
func GenerateVisitReportPDF(visit *models.ShopVisit) ([]byte, error) {
	html, err := BuildVisitReportHTML(visit)
	if err != nil {
		return nil, err
	}
	return GeneratePDF(html, DefaultPDFOptions())
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
