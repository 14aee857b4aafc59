package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterDataset() Dataset {
	return Dataset{
		Headers: []string{"class", "student"},
		Rows: []map[string]string{
			{"class": "Grade 10-A", "student": "Ana"},
			{"class": "Grade 10-A", "student": "Budi"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterDataset())
	require.NoError(t, err)
	assert.Equal(t, "\ufeffclass,student\nGrade 10-A,Ana\nGrade 10-A,Budi\n", string(out))

	out, err = NewCSVExporter().WithoutBOM().Render(rosterDataset())
	require.NoError(t, err)
	assert.Equal(t, "class,student\nGrade 10-A,Ana\nGrade 10-A,Budi\n", string(out))
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	out, err := NewCSVExporter().WithoutBOM().Render(Dataset{
		Headers: []string{"student", "gpa"},
		Rows: []map[string]string{
			{"student": "=HYPERLINK(\"http://x\")", "gpa": "3.5"},
			{"student": "@Ana", "gpa": "-"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "student,gpa\n\"'=HYPERLINK(\"\"http://x\"\")\",3.5\n'@Ana,'-\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
	_, err = NewXLSXExporter("").Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(rosterDataset(), "Class Roster")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRoundTrip(t *testing.T) {
	out, err := NewXLSXExporter("Roster").Render(Dataset{
		Headers: []string{"Name", "Email"},
		Rows: []map[string]string{
			{"Name": "Ana", "Email": "ana@example.com"},
			{"Name": "", "Email": ""},
			{"Name": "Budi", "Email": "budi@example.com"},
		},
	})
	require.NoError(t, err)

	data, err := OpenXLSXBytes(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "Ana", data.Rows[0]["name"])
	assert.Equal(t, "budi@example.com", data.Rows[1]["email"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, "roster.xlsx", f.Filename("roster"))
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
