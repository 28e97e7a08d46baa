package domains

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbaplan/internal/business"
	"urbaplan/internal/business/feasibility"
	"urbaplan/internal/business/rules"
	"urbaplan/internal/domains/common"
	"urbaplan/internal/domains/common/job"
	"urbaplan/internal/model"
	"urbaplan/pkg/lmstfyx"
	"urbaplan/pkg/logger"
)

type zoneSource struct{}

func (zoneSource) FindZone(_ context.Context, zoneID string) (*model.Zone, error) {
	if zoneID == "ZH1" {
		return &model.Zone{Code: "ZH1"}, nil
	}
	return nil, nil
}

func (zoneSource) RulesForZone(context.Context, string) ([]model.RuleRecord, error) {
	return nil, nil
}

type nopPublisher struct{ calls int }

func (p *nopPublisher) Publish(string, []byte, time.Duration, time.Duration) (string, error) {
	p.calls++
	return "cb", nil
}

func newDeps(pub *nopPublisher) *common.Deps {
	calc := feasibility.NewCalculator(feasibility.Deps{Rules: rules.NewResolver(zoneSource{}, nil, nil)})
	return &common.Deps{Feasibility: business.NewFeasibilityService(calc, pub, "callbacks", nil, nil)}
}

func jobBytes(t *testing.T, action string, data interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(model.FeasibilityJob{Payload: model.FeasibilityJobPayload{Data: model.FeasibilityJobEnvelope{
		RequestID:  "req-1",
		ActionType: action,
		ID:         "job-1",
	}}})
	require.NoError(t, err)

	// 替换业务数据
	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &generic))
	generic["payload"].(map[string]interface{})["data"].(map[string]interface{})["data"] = data
	b, err = json.Marshal(generic)
	require.NoError(t, err)
	return b
}

func TestGetProcess_Success(t *testing.T) {
	pub := &nopPublisher{}
	proc := GetProcess(logger.NewNop(), newDeps(pub))

	resp := proc(context.Background(), &client.Job{ID: "m-1", Data: jobBytes(t, model.ActionParcelFeasibility, map[string]interface{}{"zone_id": "ZH1"})})
	assert.Equal(t, lmstfyx.JobRespStatusSuccess, resp.Action)
	assert.Equal(t, 1, pub.calls)
	assert.Contains(t, string(resp.Data), `"status":"SUCCESS"`)
}

func TestGetProcess_BuryCases(t *testing.T) {
	pub := &nopPublisher{}
	proc := GetProcess(logger.NewNop(), newDeps(pub))
	ctx := context.Background()

	cases := map[string][]byte{
		"malformed json":   []byte("{"),
		"missing payload":  []byte(`{"payload":{}}`),
		"unknown action":   jobBytes(t, "order_diagnose", map[string]interface{}{"zone_id": "ZH1"}),
		"missing data":     jobBytes(t, model.ActionParcelFeasibility, nil),
		"missing zone+geo": jobBytes(t, model.ActionParcelFeasibility, map[string]interface{}{"lang": "fr"}),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			resp := proc(ctx, &client.Job{ID: "m", Data: data})
			assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
		})
	}
	assert.Zero(t, pub.calls)
}

func TestGetProcess_RecoversPanic(t *testing.T) {
	handlers := map[string]common.HandlerServProc{
		"boom": func(context.Context, *common.Deps, *job.Meta, json.RawMessage) (common.HandlerServ, error) {
			panic("boom")
		},
	}
	proc := getProcess(logger.NewNop(), nil, handlers)

	resp := proc(context.Background(), &client.Job{ID: "m", Data: jobBytes(t, "boom", map[string]interface{}{})})
	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
}
