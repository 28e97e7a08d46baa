package db

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"urbaplan/internal/business/contextlayer"
	"urbaplan/internal/business/labels"
	"urbaplan/internal/business/rules"
	"urbaplan/internal/entity"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
)

const fixtureYAML = `
zones:
  - code: ZH1
    name: Zone d'habitation 1
    zone_type: habitation
    commune: Lausanne
    canton: VD
    geometry: "POLYGON((0 0, 100 0, 100 100, 0 100, 0 0))"
  - code: ZM2
    zone_type: mixte
    geometry: "POLYGON((100 0, 200 0, 200 100, 100 100, 100 0))"
  - code: ZX9
    zone_type: habitation
rules:
  - {id: c-h, field: h_max_m, value: "12 m", level: CANTON, zone_scope: ["*"]}
  - {id: m-h, field: h_max_m, value: {value: 9, unit: m}, level: COMMUNE, zone_scope: [ZH1], effective_date: "2020-01-01"}
  - {id: m-sb, field: setback_min_m, value: 4, level: COMMUNE, zone_scope: ["ZH*"]}
  - {id: m-iu, field: iu_max, value: 0.6, level: COMMUNE, zone_scope: [ZM2]}
  - {id: c-roof, field: roof_type, value: [plat, à pans], level: CANTON}
features:
  - {id: s-1, layer: slope, geometry: "POLYGON((10 10, 30 10, 30 30, 10 30, 10 10))", value_num: 35}
  - {id: s-2, layer: slope, geometry: "POLYGON((500 500, 510 500, 510 510, 500 510, 500 500))", value_num: 50}
  - {id: n-1, layer: opb_noise, geometry: "POLYGON((0 0, 50 0, 50 50, 0 50, 0 0))", value_text: "III", metadata: {source: cadastre}}
labels:
  - code: slope_30_45
    type: constraint
    severity: 2
    texts:
      fr: {short: "Pente entre 30 et 45 %"}
      de: {short: "Hangneigung zwischen 30 und 45 %"}
`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func seededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := openTestDB(t)
	f, err := ParseFixture(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	require.NoError(t, LoadFixture(context.Background(), db, f))
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("postgres", "dsn")
	require.Error(t, err)
}

func TestRuleStore_FindZone(t *testing.T) {
	store := NewRuleStore(seededDB(t))
	ctx := context.Background()

	zone, err := store.FindZone(ctx, "ZH1")
	require.NoError(t, err)
	require.NotNil(t, zone)
	assert.Equal(t, "habitation", zone.ZoneType)
	assert.Equal(t, "VD", zone.Canton)

	missing, err := store.FindZone(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRuleStore_RulesForZone(t *testing.T) {
	store := NewRuleStore(seededDB(t))

	records, err := store.RulesForZone(context.Background(), "ZH1")
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"c-h", "m-h", "m-sb", "c-roof"}, ids)

	for _, r := range records {
		if r.ID == "m-h" {
			assert.Equal(t, model.NumericValue{Number: 9, Unit: "m"}, r.Value)
			assert.Equal(t, model.LevelCommune, r.Level)
			assert.Equal(t, 2020, r.EffectiveDate.Year())
		}
	}
}

func TestRuleStore_ResolveThroughResolver(t *testing.T) {
	store := NewRuleStore(seededDB(t))
	resolver := rules.NewResolver(store, store, nil)
	ctx := context.Background()

	set, err := resolver.ResolveByZone(ctx, "ZH1")
	require.NoError(t, err)
	height := model.NewRuleSet(set)[model.FieldHeightMax]
	assert.Equal(t, model.LevelCommune, height.Level)
	require.Len(t, height.Overridden, 1)

	res, err := resolver.ResolveGeometryDetailed(ctx, orb.Polygon{{{60, 10}, {130, 10}, {130, 40}, {60, 40}, {60, 10}}})
	require.NoError(t, err)
	assert.Equal(t, "ZH1", res.Primary.Code)
	assert.Len(t, res.Zones, 2)
}

func TestRuleStore_ZonesForGeometry(t *testing.T) {
	store := NewRuleStore(seededDB(t))

	candidates, err := store.ZonesForGeometry(context.Background(), orb.Polygon{{{150, 10}, {160, 10}, {160, 20}, {150, 20}, {150, 10}}})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "ZM2", candidates[0].Zone.Code)
	assert.NotNil(t, candidates[0].Geometry)
}

func TestRuleStore_SaveRulesReplaces(t *testing.T) {
	db := seededDB(t)
	store := NewRuleStore(db)
	ctx := context.Background()

	err := store.SaveRules(ctx, []model.RuleRecord{
		{ID: "m-sb", Field: model.FieldSetbackMin, Value: model.NumericValue{Number: 6, Unit: "m"}, Level: model.LevelCommune, ZoneScope: []string{"ZM2"}},
	})
	require.NoError(t, err)

	records, err := store.RulesForZone(ctx, "ZH1")
	require.NoError(t, err)
	for _, r := range records {
		assert.NotEqual(t, "m-sb", r.ID)
	}

	var scopes int64
	require.NoError(t, db.Model(&entity.RuleScope{}).Where("rule_id = ?", "m-sb").Count(&scopes).Error)
	assert.Equal(t, int64(1), scopes)

	err = store.SaveRules(ctx, []model.RuleRecord{{ID: "empty", Field: model.FieldHeightMax}})
	assert.ErrorIs(t, err, model.ErrEmptyValue)
}

func TestLabelStore_UpsertAndDictionary(t *testing.T) {
	db := seededDB(t)
	store := NewLabelStore(db)
	ctx := context.Background()

	err := store.SaveLabels(ctx, []model.LabelEntry{{
		Code: "slope_30_45", Type: model.LabelTypeConstraint, Severity: 3,
		Texts: map[string]model.LabelText{model.LangFR: {Short: "Pente forte"}},
	}})
	require.NoError(t, err)

	entries, err := store.LoadLabels(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Severity)

	dict := labels.NewDictionary(store, nil)
	require.NoError(t, dict.Refresh(ctx))
	assert.Equal(t, "Pente forte", dict.GetLabel("slope_30_45", model.LabelTypeConstraint, model.LangDE, false))
}

func TestLayerStore_FeaturesInBound(t *testing.T) {
	store := NewLayerStore(seededDB(t))
	ctx := context.Background()

	features, err := store.FeaturesInBound(ctx, model.LayerSlope, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{40, 40}})
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "s-1", features[0].ID)
	require.NotNil(t, features[0].ValueNum)
	assert.Equal(t, 35.0, *features[0].ValueNum)

	noise, err := store.FeaturesInBound(ctx, model.LayerNoise, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{40, 40}})
	require.NoError(t, err)
	require.Len(t, noise, 1)
	assert.Equal(t, "cadastre", noise[0].Metadata["source"])
}

func TestLayerStore_ContextResolver(t *testing.T) {
	store := NewLayerStore(seededDB(t))
	resolver := contextlayer.NewResolver(store, 0, nil, nil)

	flags, err := resolver.GetContextForParcel(context.Background(), "P-1", "POLYGON((5 5, 25 5, 25 25, 5 25, 5 5))")
	require.NoError(t, err)

	layers := map[model.Layer]bool{}
	for _, f := range flags {
		layers[f.Layer] = true
	}
	assert.True(t, layers[model.LayerSlope])
	assert.True(t, layers[model.LayerNoise])
}

func TestJobStore_Lifecycle(t *testing.T) {
	store := NewJobStore(openTestDB(t))
	ctx := context.Background()

	job := &entity.FeasibilityJob{ID: "job-1", RequestID: "req-1", ZoneID: "ZH1", Request: []byte(`{"zone_id":"ZH1"}`)}
	require.NoError(t, store.CreateJob(ctx, job))

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, got.Status)

	require.NoError(t, store.UpdateResult(ctx, "job-1", []byte(`{"zone_id":"ZH1"}`), entity.JobStatusDone, ""))
	got, err = store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusDone, got.Status)
	assert.JSONEq(t, `{"zone_id":"ZH1"}`, string(got.Result))

	err = store.UpdateResult(ctx, "missing", nil, entity.JobStatusFailed, "boom")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.False(t, errorutil.IsRetryable(err))

	_, err = store.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
