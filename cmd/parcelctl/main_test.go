package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caseYAML = `
zones:
  - {code: ZH1, zone_type: habitation, geometry: "POLYGON((0 0, 100 0, 100 100, 0 100, 0 0))"}
rules:
  - {id: c-h, field: h_max_m, value: "12 m", level: CANTON, zone_scope: ["*"]}
  - {id: m-h, field: h_max_m, value: "9 m", level: COMMUNE, zone_scope: [ZH1]}
  - {id: m-iu, field: iu_max, value: 0.5, level: COMMUNE, zone_scope: [ZH1]}
labels:
  - {code: h_max_m, type: field, texts: {fr: {short: Hauteur maximale}, de: {short: Maximale Höhe}}}
request:
  lang: fr
  parcel:
    id: P-1
    geometry: "POLYGON((10 10, 50 10, 50 35, 10 35, 10 10))"
  project:
    h_max_m: 10
`

const labelsYAML = `
labels:
  - {code: slope_30_45, type: constraint, severity: 2, texts: {fr: {short: "Pente entre 30 et 45 %"}}}
  - {code: ZH1, type: zone, texts: {fr: {short: "Zone d'habitation"}}}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFeasibility_JSON(t *testing.T) {
	path := writeFile(t, "case.yaml", caseYAML)

	out, err := execute(t, "feasibility", "--fixture", path)
	require.NoError(t, err)

	var report struct {
		ZoneID   string `json:"zone_id"`
		ParcelID string `json:"parcel_id"`
		Criteria []struct {
			Field  string `json:"field"`
			Status string `json:"status"`
		} `json:"criteria"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ZH1", report.ZoneID)
	assert.Equal(t, "P-1", report.ParcelID)

	statuses := map[string]string{}
	for _, c := range report.Criteria {
		statuses[c.Field] = c.Status
	}
	assert.Equal(t, "non_compliant", statuses["h_max_m"])
}

func TestFeasibility_MarkdownWithLangOverride(t *testing.T) {
	path := writeFile(t, "case.yaml", caseYAML)

	out, err := execute(t, "feasibility", "--fixture", path, "--markdown", "--lang", "de")
	require.NoError(t, err)
	assert.Contains(t, out, "# Machbarkeitstabelle")
	assert.Contains(t, out, "| Maximale Höhe | ≤ 9 m | 10 | nein | COMMUNE |")
}

func TestFeasibility_RequiresFixture(t *testing.T) {
	_, err := execute(t, "feasibility")
	require.Error(t, err)
}

func TestSeed_SQLite(t *testing.T) {
	fixture := writeFile(t, "reference.yaml", caseYAML)
	labelsFile := writeFile(t, "labels.yaml", labelsYAML)
	dsn := filepath.Join(t.TempDir(), "seed.db")

	out, err := execute(t, "seed", "--driver", "sqlite", "--db", dsn, "--fixture", fixture, "--labels", labelsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "fixture: 1 zones, 3 rules, 0 features, 1 labels")
	assert.Contains(t, out, "labels: 3 entries in store")

	_, err = execute(t, "seed", "--driver", "sqlite", "--db", dsn)
	assert.ErrorContains(t, err, "nothing to seed")
}
