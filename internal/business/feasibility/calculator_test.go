package feasibility

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbaplan/internal/business/labels"
	"urbaplan/internal/business/rules"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
)

type fakeSource struct {
	zones   map[string]model.Zone
	records []model.RuleRecord
	err     error
	finds   int
}

func (f *fakeSource) FindZone(_ context.Context, zoneID string) (*model.Zone, error) {
	f.finds++
	if f.err != nil {
		return nil, f.err
	}
	z, ok := f.zones[zoneID]
	if !ok {
		return nil, nil
	}
	return &z, nil
}

func (f *fakeSource) RulesForZone(context.Context, string) ([]model.RuleRecord, error) {
	return f.records, nil
}

type fakeLocator []rules.ZoneCandidate

func (f fakeLocator) ZonesForGeometry(context.Context, orb.Geometry) ([]rules.ZoneCandidate, error) {
	return f, nil
}

type fakeContext []model.ContextFlag

func (f fakeContext) ContextForGeometry(context.Context, string, orb.Geometry) []model.ContextFlag {
	return f
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const parcelWKT = "POLYGON((0 0, 40 0, 40 25, 0 25, 0 0))"

func num(n float64, unit string) model.Value { return model.NumericValue{Number: n, Unit: unit} }

func ptr(v float64) *float64 { return &v }

func newCalculator(src *fakeSource, locator rules.ZoneLocator, ctxFlags fakeContext) *Calculator {
	dict := labels.NewStaticDictionary([]model.LabelEntry{
		{Code: "h_max_m", Type: model.LabelTypeField, Texts: map[string]model.LabelText{
			model.LangFR: {Short: "Hauteur maximale"}, model.LangDE: {Short: "Maximale Höhe"},
		}},
		{Code: "slope_30_45", Type: model.LabelTypeConstraint, Texts: map[string]model.LabelText{
			model.LangFR: {Short: "Pente entre 30 et 45 %"}, model.LangDE: {Short: "Hangneigung zwischen 30 und 45 %"},
		}},
	})
	return NewCalculator(Deps{
		Rules:   rules.NewResolver(src, locator, nil),
		Context: ctxFlags,
		Labels:  dict,
		Now:     func() time.Time { return fixedNow },
	})
}

func standardSource() *fakeSource {
	return &fakeSource{
		zones: map[string]model.Zone{"ZH1": {Code: "ZH1", ZoneType: "habitation"}},
		records: []model.RuleRecord{
			{ID: "c-h", Field: model.FieldHeightMax, Value: num(12, "m"), Level: model.LevelCanton, ZoneScope: []string{"*"}},
			{ID: "m-h", Field: model.FieldHeightMax, Value: num(9, "m"), Level: model.LevelCommune, ZoneScope: []string{"ZH1"}},
			{ID: "m-iu", Field: model.FieldLandUseIndex, Value: num(0.5, ""), Level: model.LevelCommune, ZoneScope: []string{"ZH1"}},
			{ID: "m-sb", Field: model.FieldSetbackMin, Value: num(4, "m"), Level: model.LevelCommune, ZoneScope: []string{"ZH*"}},
			{ID: "m-roof", Field: model.FieldRoofType, Value: model.ListValue{Items: []model.Value{
				model.TextValue{Text: "à pans"}, model.TextValue{Text: "plat"},
			}}, Level: model.LevelCommune},
		},
	}
}

func findCriterion(t *testing.T, r *model.FeasibilityResult, field model.Field) model.FeasibilityCriterion {
	t.Helper()
	for _, c := range r.Criteria {
		if c.Field == field {
			return c
		}
	}
	t.Fatalf("criterion %s not found", field)
	return model.FeasibilityCriterion{}
}

func TestGenerateFeasibilityTable_FullReport(t *testing.T) {
	c := newCalculator(standardSource(), nil, fakeContext{
		{Layer: model.LayerSlope, ValueNum: ptr(35), Severity: 2, Message: "Pente de 35 %"},
		{Layer: model.LayerNaturalHazards, ValueText: "fort", Severity: 3, Message: "Danger naturel fort"},
	})

	res, err := c.GenerateFeasibilityTable(context.Background(), Request{
		ZoneID: "ZH1",
		Project: map[model.Field]model.ProjectValue{
			model.FieldHeightMax:  model.NumberProject(10),
			model.FieldSetbackMin: model.NumberProject(5),
			model.FieldRoofType:   model.TextProject("Plat"),
		},
		Parcel: &ParcelInfo{ID: "P-1", AreaM2: ptr(1000), GeometryWKT: parcelWKT},
		Lang:   "fr",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ZoneStatusResolved, res.ZoneStatus)
	assert.Equal(t, fixedNow, res.GeneratedAt)
	require.Len(t, res.Criteria, len(StandardFields()))

	height := findCriterion(t, res, model.FieldHeightMax)
	assert.Equal(t, "Hauteur maximale", height.Label)
	assert.Equal(t, "≤ 9 m", height.Requirement)
	assert.Equal(t, model.StatusNonCompliant, height.Status)
	assert.Equal(t, "COMMUNE", height.Level)
	assert.Contains(t, height.Comment, "overrides CANTON (12 m)")

	assert.Equal(t, model.StatusCompliant, findCriterion(t, res, model.FieldSetbackMin).Status)
	assert.Equal(t, model.StatusCompliant, findCriterion(t, res, model.FieldRoofType).Status)
	assert.Equal(t, model.StatusNotEvaluated, findCriterion(t, res, model.FieldLandUseIndex).Status)
	assert.Equal(t, model.StatusNotRegulated, findCriterion(t, res, model.FieldFootprint).Status)

	require.NotNil(t, res.Summary.ConformityScore)
	assert.InDelta(t, 2.0/3.0, *res.Summary.ConformityScore, 1e-3)
	assert.Equal(t, 2, res.Summary.Compliant)
	assert.Equal(t, 1, res.Summary.NonCompliant)

	require.Len(t, res.Overrides, 1)
	assert.Equal(t, model.FieldHeightMax, res.Overrides[0].Field)

	require.NotNil(t, res.Calculations)
	assert.Equal(t, model.ReliabilityMedium, res.Calculations.Reliability)
	assert.InDelta(t, 625, *res.Calculations.IbusM2, 1e-9)
	assert.Equal(t, "request", res.Calculations.Details["parcel_area_source"])

	assert.Equal(t, []string{"Danger naturel fort", "Pente entre 30 et 45 %"}, res.ContextNotes)
	assert.Len(t, res.ContextDetails, 2)
	assert.Equal(t, 2, res.Summary.Issues) // one non-compliant criterion, one critical constraint
}

func TestGenerateFeasibilityTable_ReloadsClearedLabels(t *testing.T) {
	src := standardSource()
	dict := labels.NewDictionary(labels.StaticRepository{
		{Code: "h_max_m", Type: model.LabelTypeField, Texts: map[string]model.LabelText{
			model.LangFR: {Short: "Hauteur maximale"},
		}},
	}, nil)
	dict.Clear()
	c := NewCalculator(Deps{Rules: rules.NewResolver(src, nil, nil), Labels: dict, Now: func() time.Time { return fixedNow }})

	res, err := c.GenerateFeasibilityTable(context.Background(), Request{ZoneID: "ZH1", Lang: "fr"})
	require.NoError(t, err)

	assert.False(t, dict.Stale())
	assert.Equal(t, "Hauteur maximale", findCriterion(t, res, model.FieldHeightMax).Label)
	assert.Equal(t, 1, src.finds)
}

func TestGenerateFeasibilityTable_NoProjectData(t *testing.T) {
	c := newCalculator(standardSource(), nil, nil)

	res, err := c.GenerateFeasibilityTable(context.Background(), Request{ZoneID: "ZH1"})
	require.NoError(t, err)
	assert.Nil(t, res.Summary.ConformityScore)
	assert.Nil(t, res.Calculations)
	assert.Empty(t, res.ContextNotes)
	assert.Equal(t, "fr", res.Lang)
	for _, crit := range res.Criteria {
		assert.Contains(t, []model.CriterionStatus{model.StatusNotEvaluated, model.StatusNotRegulated}, crit.Status)
	}
}

func TestGenerateFeasibilityTable_AreaFromGeometry(t *testing.T) {
	locator := fakeLocator{{Zone: model.Zone{Code: "ZH1", ZoneType: "habitation"}, Geometry: orb.Polygon{{{-10, -10}, {100, -10}, {100, 100}, {-10, 100}, {-10, -10}}}}}
	c := newCalculator(standardSource(), locator, fakeContext{})

	res, err := c.GenerateFeasibilityTable(context.Background(), Request{
		Parcel: &ParcelInfo{ID: "P-2", GeometryWKT: parcelWKT},
		Lang:   "de",
	})
	require.NoError(t, err)
	assert.Equal(t, "ZH1", res.ZoneID)
	assert.Equal(t, "Maximale Höhe", findCriterion(t, res, model.FieldHeightMax).Label)
	require.NotNil(t, res.Calculations)
	assert.Equal(t, "geometry", res.Calculations.Details["parcel_area_source"])
	assert.InDelta(t, 1000*0.5/0.8, *res.Calculations.IbusM2, 1e-6)
}

func TestGenerateFeasibilityTable_UndeterminedZone(t *testing.T) {
	c := newCalculator(standardSource(), nil, nil)

	res, err := c.GenerateFeasibilityTable(context.Background(), Request{
		ZoneID:  "UNKNOWN",
		Project: map[model.Field]model.ProjectValue{model.FieldHeightMax: model.NumberProject(10)},
		Parcel:  &ParcelInfo{AreaM2: ptr(500)},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ZoneStatusUndetermined, res.ZoneStatus)
	assert.Nil(t, res.Calculations)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "UNKNOWN")
	assert.Equal(t, len(StandardFields()), res.Summary.NotRegulated)
}

func TestGenerateFeasibilityTable_InvalidInput(t *testing.T) {
	c := newCalculator(standardSource(), nil, nil)
	ctx := context.Background()

	cases := map[string]Request{
		"negative area":      {ZoneID: "ZH1", Parcel: &ParcelInfo{AreaM2: ptr(-1)}},
		"malformed geometry": {ZoneID: "ZH1", Parcel: &ParcelInfo{GeometryWKT: "POLYGON((0 0"}},
		"nothing to resolve": {Parcel: &ParcelInfo{AreaM2: ptr(100)}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.GenerateFeasibilityTable(ctx, req)
			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, 400, errorutil.Wrap(err).Code)
			assert.False(t, errorutil.IsRetryable(err))
		})
	}
}

func TestGenerateFeasibilityTable_UnsupportedLanguage(t *testing.T) {
	c := newCalculator(standardSource(), nil, nil)

	res, err := c.GenerateFeasibilityTable(context.Background(), Request{ZoneID: "ZH1", Lang: "rm"})
	require.NoError(t, err)
	assert.Equal(t, "fr", res.Lang)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "unsupported language")
}

func TestGenerateFeasibilityTable_StoreFailure(t *testing.T) {
	src := &fakeSource{err: errorutil.RetriableWithCause("rule store unavailable", errors.New("timeout"))}
	c := newCalculator(src, nil, nil)

	_, err := c.GenerateFeasibilityTable(context.Background(), Request{ZoneID: "ZH1"})
	require.Error(t, err)
	assert.True(t, errorutil.IsRetryable(err))
}

func TestRenderMarkdown(t *testing.T) {
	c := newCalculator(standardSource(), nil, nil)
	res, err := c.GenerateFeasibilityTable(context.Background(), Request{
		ZoneID:  "ZH1",
		Project: map[model.Field]model.ProjectValue{model.FieldHeightMax: model.NumberProject(8.5)},
		Parcel:  &ParcelInfo{AreaM2: ptr(1000)},
	})
	require.NoError(t, err)

	md := RenderMarkdown(res)
	assert.Contains(t, md, "| Critère | Exigence | Projet | Conforme ? | Niveau prioritaire |")
	assert.Contains(t, md, "| Hauteur maximale | ≤ 9 m | 8.5 | oui | COMMUNE |")
	assert.Contains(t, md, "| ibus_max |  |  | non réglementé |  |")
	assert.Contains(t, md, "**Score de conformité:** 100 %")
	assert.Contains(t, md, "- IBUS: 625 m²")
	assert.Empty(t, RenderMarkdown(nil))
}
