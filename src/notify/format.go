package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	model "github.com/cowin-slot-notifier/src/model"
)

var tableTemplate = template.Must(template.New("table").Parse(`<html>
  <body>
    <p>
      <table border="1">
        <tr><th>date</th><th>min_age_limit</th><th>available_capacity</th><th>pincode</th><th>name</th><th>state_name</th><th>district_name</th><th>fee_type</th><th>vaccine</th></tr>
{{- range .}}
        <tr><td>{{.Date.Format "02-01-2006"}}</td><td>{{.MinAgeLimit}}</td><td>{{.AvailableCapacity}}</td><td>{{.Pincode}}</td><td>{{.CenterName}}</td><td>{{.StateName}}</td><td>{{.DistrictName}}</td><td>{{.FeeType}}</td><td>{{.VaccineName}}</td></tr>
{{- end}}
      </table>
    </p>
  </body>
</html>
`))

// Subject returns the message subject for p.
func (p Payload) Subject() string {
	switch p.Kind {
	case Success:
		return fmt.Sprintf("Availability for Max Age %d Count %d", p.MinAgeLimit, len(p.Rows))
	case Failure:
		return "Vaccine availability check failed"
	default:
		return fmt.Sprintf("Test message from vaccine slot finder for %d+", p.MinAgeLimit)
	}
}

// Text returns the plain text body for p.
func (p Payload) Text() string {
	var b strings.Builder
	b.WriteString("Hi,\n")
	switch p.Kind {
	case Success:
		b.WriteString("Please refer vaccine availability\n\n")
		for _, row := range p.Rows {
			b.WriteString(rowLine(row))
			b.WriteString("\n")
		}
	case Failure:
		b.WriteString("The availability check could not complete.\n\n")
		b.WriteString(p.Detail)
		b.WriteString("\n")
	default:
		fmt.Fprintf(&b, "You will be notified of vaccine slots for %d+ once they are available.\n", p.MinAgeLimit)
	}
	if p.RunID != "" {
		fmt.Fprintf(&b, "\nrun: %s\n", p.RunID)
	}
	return b.String()
}

// HTML returns the HTML alternative body. Only success payloads carry a table.
func (p Payload) HTML() (string, error) {
	if p.Kind != Success {
		return "<html>\n  <body>\n    <p>" + template.HTMLEscapeString(p.Text()) + "</p>\n  </body>\n</html>\n", nil
	}

	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, p.Rows); err != nil {
		return "", fmt.Errorf("render availability table: %w", err)
	}
	return buf.String(), nil
}

func rowLine(row model.SessionRow) string {
	return fmt.Sprintf("%s | %d+ | %d available | %s | %s | %s | %s | %s",
		row.Date.Format(model.DateFormat), row.MinAgeLimit, row.AvailableCapacity,
		row.CenterName, row.Pincode, row.DistrictName, row.FeeType, row.VaccineName)
}

// rowBlock renders one row as a multi-line block for chat messages.
func rowBlock(row model.SessionRow) string {
	return fmt.Sprintf("   Hospital: %s\n   MinAgeLimit: %d\n   Date: %s\n   AvailableCapacity: %d\n   Vaccine: %s\n   District: %s\n   Pincode: %s\n",
		row.CenterName, row.MinAgeLimit, row.Date.Format(model.DateFormat), row.AvailableCapacity, row.VaccineName, row.DistrictName, row.Pincode)
}
