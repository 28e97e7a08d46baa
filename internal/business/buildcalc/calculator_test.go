package buildcalc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbaplan/internal/model"
)

func rule(field model.Field, v float64) model.ConsolidatedRule {
	return model.ConsolidatedRule{Field: field, Value: model.NumericValue{Number: v}, Level: model.LevelCommune}
}

func containsControl(controls []string, fragment string) bool {
	for _, c := range controls {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

func TestCompute_ConversionScenario(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 1000,
		Rules:        []model.ConsolidatedRule{rule(model.FieldLandUseIndex, 0.5)},
	})

	require.NotNil(t, out.IbusM2)
	assert.InDelta(t, 625, *out.IbusM2, 1e-9)
	require.NotNil(t, out.SuM2)
	assert.InDelta(t, 500, *out.SuM2, 1e-9)
	assert.Equal(t, true, out.Details["conversion_applied"])
	assert.Equal(t, model.ReliabilityMedium, out.Reliability)
	assert.True(t, containsControl(out.Controls, "conversion applied"))

	assert.Nil(t, out.EmpriseM2)
	assert.Nil(t, out.NiveauxMaxEst)
}

func TestCompute_AllFieldsPresent(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 800,
		ZoneType:     "habitation",
		Rules: []model.ConsolidatedRule{
			rule(model.FieldLandUseIndex, 0.6),
			rule(model.FieldGrossFloor, 0.75),
			rule(model.FieldFootprint, 0.25),
			rule(model.FieldHeightMax, 10),
			rule(model.FieldLevelsMax, 3),
		},
	})

	assert.Equal(t, model.ReliabilityHigh, out.Reliability)
	assert.InDelta(t, 600, *out.IbusM2, 1e-9)
	assert.InDelta(t, 480, *out.SuM2, 1e-9)
	assert.InDelta(t, 200, *out.EmpriseM2, 1e-9)
	require.NotNil(t, out.NiveauxMaxEst)
	assert.Equal(t, 3, *out.NiveauxMaxEst)
	assert.Empty(t, out.Controls)
	assert.NotContains(t, out.Details, "conversion_applied")
}

func TestCompute_SuFromIbus(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 500,
		Rules:        []model.ConsolidatedRule{rule(model.FieldGrossFloor, 1)},
	})
	assert.InDelta(t, 400, *out.SuM2, 1e-9)
	assert.Equal(t, true, out.Details["su_derived_from_ibus"])
	assert.Equal(t, model.ReliabilityHigh, out.Reliability)
}

func TestCompute_MissingBaseFields(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 1000,
		Rules:        []model.ConsolidatedRule{rule(model.FieldHeightMax, 9)},
	})
	assert.Nil(t, out.IbusM2)
	assert.Nil(t, out.SuM2)
	assert.Equal(t, model.ReliabilityLow, out.Reliability)
	assert.True(t, containsControl(out.Controls, "floor areas not computed"))
	assert.True(t, containsControl(out.Controls, "story height"))
}

func TestCompute_NonPositiveArea(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 0,
		Rules:        []model.ConsolidatedRule{rule(model.FieldGrossFloor, 1)},
	})
	assert.Nil(t, out.IbusM2)
	assert.Equal(t, model.ReliabilityLow, out.Reliability)

	out = Compute(model.CalcInput{
		ParcelAreaM2: 0,
		Rules:        []model.ConsolidatedRule{rule(model.FieldLandUseIndex, 0.5)},
	})
	assert.Nil(t, out.IbusM2)
	assert.Nil(t, out.SuM2)
	assert.Equal(t, true, out.Details["conversion_applied"])
	assert.Equal(t, UsableToGrossFactor, out.Details["conversion_factor"])
	assert.Equal(t, model.ReliabilityLow, out.Reliability)
	assert.True(t, containsControl(out.Controls, "conversion applied"))
}

func TestCompute_PlausibleBound(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 100,
		Rules: []model.ConsolidatedRule{
			rule(model.FieldGrossFloor, 8),
			rule(model.FieldFootprint, 1.2),
		},
	})

	bound := 100 * MaxPlausibleRatio
	for _, v := range []*float64{out.IbusM2, out.SuM2, out.EmpriseM2} {
		require.NotNil(t, v)
		assert.LessOrEqual(t, *v, bound)
	}
	assert.Equal(t, bound, *out.IbusM2)
	assert.Equal(t, 800.0, out.Details["capped_ibus_m2"])
	assert.True(t, containsControl(out.Controls, "capped"))
	assert.True(t, containsControl(out.Controls, "ibus_max=8 outside plausible range"))
	assert.True(t, containsControl(out.Controls, "ios_max=1.2 outside plausible range"))
	// out-of-range footprint ratio is still used
	assert.InDelta(t, 120, *out.EmpriseM2, 1e-9)
}

func TestCompute_StoryHeight(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 1000,
		ZoneType:     "Activités",
		Rules: []model.ConsolidatedRule{
			rule(model.FieldGrossFloor, 1),
			rule(model.FieldHeightMax, 14),
		},
	})
	require.NotNil(t, out.NiveauxMaxEst)
	assert.Equal(t, 3, *out.NiveauxMaxEst)
	assert.Equal(t, "zone_type", out.Details["story_height_source"])

	out = Compute(model.CalcInput{
		ParcelAreaM2: 1000,
		ZoneType:     "habitation",
		Rules: []model.ConsolidatedRule{
			rule(model.FieldGrossFloor, 1),
			rule(model.FieldHeightMax, 12),
			rule(model.FieldStoryHeight, 2.5),
			rule(model.FieldLevelsMax, 3),
		},
	})
	assert.Equal(t, 4, *out.NiveauxMaxEst)
	assert.Equal(t, "rule", out.Details["story_height_source"])
	assert.True(t, containsControl(out.Controls, "exceed regulated niveaux_max"))
}

func TestCompute_Incoherent(t *testing.T) {
	out := Compute(model.CalcInput{
		ParcelAreaM2: 1000,
		Rules: []model.ConsolidatedRule{
			rule(model.FieldLandUseIndex, 0.4),
			rule(model.FieldGrossFloor, 1.2),
		},
	})
	assert.True(t, containsControl(out.Controls, "inconsistent"))
	assert.Equal(t, model.ReliabilityHigh, out.Reliability)
}
