package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

type fakeLocator []ZoneCandidate

func (f fakeLocator) ZonesForGeometry(context.Context, orb.Geometry) ([]ZoneCandidate, error) {
	return f, nil
}

func num(n float64) model.Value { return model.NumericValue{Number: n} }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestConsolidate_SingleRecordPerField(t *testing.T) {
	records := []model.RuleRecord{
		{ID: "r1", Field: model.FieldHeightMax, Value: num(12), Level: model.LevelCanton, ZoneScope: []string{"*"}},
		{ID: "r2", Field: model.FieldFootprint, Value: num(0.3), Level: model.LevelCommune, ZoneScope: []string{"ZH1"}},
	}

	rules := Consolidate("ZH1", records)
	require.Len(t, rules, 2)
	for _, r := range rules {
		assert.Empty(t, r.Overridden)
	}
	assert.Equal(t, model.FieldHeightMax, rules[0].Field)
	assert.Equal(t, num(12), rules[0].Value)
	assert.Equal(t, model.FieldFootprint, rules[1].Field)
}

func TestConsolidate_HighestLevelWins(t *testing.T) {
	records := []model.RuleRecord{
		{ID: "c", Field: model.FieldHeightMax, Value: num(12), Level: model.LevelCanton},
		{ID: "x", Field: model.FieldHeightMax, Value: num(15), Level: model.LevelException},
		{ID: "m", Field: model.FieldHeightMax, Value: num(9), Level: model.LevelCommune},
		{ID: "p", Field: model.FieldHeightMax, Value: num(11), Level: model.LevelSpecialZone},
	}

	rules := Consolidate("ZH1", records)
	require.Len(t, rules, 1)
	assert.Equal(t, model.LevelException, rules[0].Level)
	assert.Equal(t, "x", rules[0].RecordID)
	require.Len(t, rules[0].Overridden, 3)
	assert.Equal(t, []model.Level{model.LevelSpecialZone, model.LevelCommune, model.LevelCanton},
		[]model.Level{rules[0].Overridden[0].Level, rules[0].Overridden[1].Level, rules[0].Overridden[2].Level})
	for _, o := range rules[0].Overridden {
		assert.NotEqual(t, "x", o.RecordID)
	}
}

func TestConsolidate_TieBreak(t *testing.T) {
	records := []model.RuleRecord{
		{ID: "wild", Field: model.FieldSetbackMin, Value: num(4), Level: model.LevelCommune, ZoneScope: []string{"*"}, EffectiveDate: day("2024-01-01")},
		{ID: "prefix", Field: model.FieldSetbackMin, Value: num(5), Level: model.LevelCommune, ZoneScope: []string{"ZH*"}, EffectiveDate: day("2020-01-01")},
		{ID: "exact-old", Field: model.FieldSetbackMin, Value: num(6), Level: model.LevelCommune, ZoneScope: []string{"ZH1"}, EffectiveDate: day("2019-01-01")},
		{ID: "exact-new-b", Field: model.FieldSetbackMin, Value: num(7), Level: model.LevelCommune, ZoneScope: []string{"zh1"}, EffectiveDate: day("2022-01-01")},
		{ID: "exact-new-a", Field: model.FieldSetbackMin, Value: num(8), Level: model.LevelCommune, ZoneScope: []string{"ZH1"}, EffectiveDate: day("2022-01-01")},
		{ID: "other-zone", Field: model.FieldSetbackMin, Value: num(99), Level: model.LevelException, ZoneScope: []string{"ZM2"}},
	}

	rules := Consolidate("ZH1", records)
	require.Len(t, rules, 1)
	assert.Equal(t, "exact-new-a", rules[0].RecordID)

	ids := make([]string, 0, len(rules[0].Overridden))
	for _, o := range rules[0].Overridden {
		ids = append(ids, o.RecordID)
	}
	assert.Equal(t, []string{"exact-new-b", "exact-old", "prefix", "wild"}, ids)
}

func TestConsolidate_Deterministic(t *testing.T) {
	records := []model.RuleRecord{
		{ID: "b", Field: model.FieldRoofType, Value: model.TextValue{Text: "plat"}, Level: model.LevelCommune},
		{ID: "a", Field: model.FieldRoofType, Value: model.TextValue{Text: "à pans"}, Level: model.LevelCommune},
		{ID: "c", Field: model.FieldHeightMax, Value: num(10), Level: model.LevelCanton},
	}
	reversed := []model.RuleRecord{records[2], records[1], records[0]}

	first := Consolidate("Z", records)
	assert.Equal(t, first, Consolidate("Z", records))
	assert.Equal(t, first, Consolidate("Z", reversed))
	assert.Equal(t, "a", first[1].RecordID)
}

func TestScopeSpecificity(t *testing.T) {
	assert.Equal(t, 2, ScopeSpecificity([]string{"*", "ZH1"}, "ZH1"))
	assert.Equal(t, 1, ScopeSpecificity([]string{"ZH*"}, "ZH1"))
	assert.Equal(t, 0, ScopeSpecificity(nil, "ZH1"))
	assert.Equal(t, -1, ScopeSpecificity([]string{"ZM*"}, "ZH1"))
}

func TestResolveByZone_CantonCommuneScenario(t *testing.T) {
	src := &fakeSource{
		zones: map[string]model.Zone{"ZH1": {Code: "ZH1", ZoneType: "habitation"}},
		records: []model.RuleRecord{
			{ID: "canton-h", Field: model.FieldHeightMax, Value: model.NumericValue{Number: 12, Unit: "m"}, Level: model.LevelCanton, ZoneScope: []string{"*"}},
			{ID: "commune-h", Field: model.FieldHeightMax, Value: model.NumericValue{Number: 9, Unit: "m"}, Level: model.LevelCommune, ZoneScope: []string{"ZH1"}},
		},
	}
	r := NewResolver(src, nil, nil)

	rules, err := r.ResolveByZone(context.Background(), "ZH1")
	require.NoError(t, err)
	require.Len(t, rules, 1)

	rule := rules[0]
	assert.Equal(t, model.FieldHeightMax, rule.Field)
	n, ok := model.AsNumber(rule.Value)
	require.True(t, ok)
	assert.Equal(t, 9.0, n)
	assert.Equal(t, "COMMUNE", rule.Level.String())
	require.Len(t, rule.Overridden, 1)
	assert.Equal(t, model.LevelCanton, rule.Overridden[0].Level)
	n, _ = model.AsNumber(rule.Overridden[0].Value)
	assert.Equal(t, 12.0, n)

	again, err := r.ResolveByZone(context.Background(), "ZH1")
	require.NoError(t, err)
	assert.Equal(t, rules, again)
}

func TestResolveZone_SingleZoneLookup(t *testing.T) {
	src := &fakeSource{
		zones: map[string]model.Zone{"ZH1": {Code: "ZH1", ZoneType: "habitation"}},
		records: []model.RuleRecord{
			{ID: "commune-h", Field: model.FieldHeightMax, Value: model.NumericValue{Number: 9}, Level: model.LevelCommune, ZoneScope: []string{"ZH1"}},
		},
	}
	r := NewResolver(src, fakeLocator{{Zone: model.Zone{Code: "ZH1"}, Geometry: square(0, 0, 100)}}, nil)

	zone, rules, err := r.ResolveZone(context.Background(), "ZH1")
	require.NoError(t, err)
	assert.Equal(t, "habitation", zone.ZoneType)
	require.Len(t, rules, 1)
	assert.Equal(t, 1, src.finds)

	_, err = r.ResolveGeometryDetailed(context.Background(), square(10, 10, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, src.finds, "primary zone comes from the locator")
}

func TestResolveByZone_Errors(t *testing.T) {
	r := NewResolver(&fakeSource{zones: map[string]model.Zone{}}, nil, nil)

	_, err := r.ResolveByZone(context.Background(), "NOPE")
	var unknown *UnknownZoneError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "NOPE", unknown.ZoneID)
	assert.Equal(t, 404, errorutil.Wrap(err).Code)

	storeErr := errorutil.RetriableWithCause("rule store unavailable", errors.New("dial tcp"))
	r = NewResolver(&fakeSource{err: storeErr}, nil, nil)
	_, err = r.ResolveByZone(context.Background(), "ZH1")
	assert.True(t, errorutil.IsRetryable(err))
}

func square(x0, y0, size float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0}}}
}

func TestResolveGeometryDetailed_PrimaryZone(t *testing.T) {
	src := &fakeSource{
		zones: map[string]model.Zone{
			"ZA": {Code: "ZA"},
			"ZB": {Code: "ZB"},
		},
		records: []model.RuleRecord{
			{ID: "a", Field: model.FieldHeightMax, Value: num(10), Level: model.LevelCommune, ZoneScope: []string{"ZA"}},
			{ID: "b", Field: model.FieldHeightMax, Value: num(20), Level: model.LevelCommune, ZoneScope: []string{"ZB"}},
		},
	}
	locator := fakeLocator{
		{Zone: model.Zone{Code: "ZA"}, Geometry: orb.Polygon{{{0, 0}, {3, 0}, {3, 10}, {0, 10}, {0, 0}}}},
		{Zone: model.Zone{Code: "ZB"}, Geometry: orb.Polygon{{{3, 0}, {10, 0}, {10, 10}, {3, 10}, {3, 0}}}},
		{Zone: model.Zone{Code: "ZC"}, Geometry: square(100, 100, 5)},
	}
	r := NewResolver(src, locator, nil)

	res, err := r.ResolveGeometryDetailed(context.Background(), square(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, "ZB", res.Primary.Code)
	require.Len(t, res.Zones, 2)
	assert.Greater(t, res.Zones[0].Coverage, res.Zones[1].Coverage)
	require.Len(t, res.Rules, 1)
	assert.Equal(t, "b", res.Rules[0].RecordID)
}

func TestResolveByGeometry_NoZone(t *testing.T) {
	r := NewResolver(&fakeSource{}, fakeLocator{{Zone: model.Zone{Code: "ZC"}, Geometry: square(100, 100, 5)}}, nil)

	_, err := r.ResolveByGeometry(context.Background(), square(0, 0, 10))
	var notFound *ZoneNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
