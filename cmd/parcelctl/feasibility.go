package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"urbaplan/internal/business/feasibility"
	"urbaplan/internal/engine"
	"urbaplan/internal/model"
	"urbaplan/pkg/config"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/logger"
)

// caseFile 可行性用例：参考数据（zones / rules / features / labels）加上请求
//
//	request:
//	  zone_id: ZH1
//	  lang: fr
//	  parcel: {id: P-1, area_m2: 850, geometry: "POLYGON(...)"}
//	  project: {h_max_m: 10, roof_type: plat}
type caseFile struct {
	Request caseRequest `yaml:"request"`
}

type caseRequest struct {
	ZoneID  string                 `yaml:"zone_id"`
	Lang    string                 `yaml:"lang"`
	Parcel  *caseParcel            `yaml:"parcel"`
	Project map[string]interface{} `yaml:"project"`
}

type caseParcel struct {
	ID       string   `yaml:"id"`
	AreaM2   *float64 `yaml:"area_m2"`
	Geometry string   `yaml:"geometry"`
	ZoneType string   `yaml:"zone_type"`
}

func (r caseRequest) jobData() model.FeasibilityJobData {
	data := model.FeasibilityJobData{ZoneID: r.ZoneID, Lang: r.Lang}
	if r.Parcel != nil {
		data.ParcelID = r.Parcel.ID
		data.AreaM2 = r.Parcel.AreaM2
		data.GeometryWKT = r.Parcel.Geometry
		data.ZoneType = r.Parcel.ZoneType
	}
	if len(r.Project) > 0 {
		data.Project = make(map[string]model.ProjectValue, len(r.Project))
		for field, raw := range r.Project {
			data.Project[field] = model.ParseProjectValue(raw)
		}
	}
	return data
}

func feasibilityCmd(newLogger func() (logger.Logger, error)) *cobra.Command {
	var (
		fixturePath string
		labelsPath  string
		lang        string
		zoneID      string
		markdown    bool
	)

	cmd := &cobra.Command{
		Use:   "feasibility",
		Short: "Generate a feasibility report from a YAML case file",
		Long: `Loads the case file's reference data into an in-memory store, runs the
rule engine on its request and prints the report as JSON or markdown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			data, err := os.ReadFile(fixturePath)
			if err != nil {
				return fmt.Errorf("read fixture: %w", err)
			}
			var c caseFile
			if err := yaml.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("decode case request: %w", err)
			}
			req := c.Request.jobData()
			if lang != "" {
				req.Lang = lang
			}
			if zoneID != "" {
				req.ZoneID = zoneID
			}

			result, err := runCase(cmd.Context(), data, labelsPath, req, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if markdown {
				_, err = fmt.Fprint(out, feasibility.RenderMarkdown(result))
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "Case file (YAML) with reference data and request")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "Additional label seed file (YAML)")
	cmd.Flags().StringVar(&lang, "lang", "", "Override the request language (fr, de, it, en)")
	cmd.Flags().StringVar(&zoneID, "zone", "", "Override the request zone id")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the report as a markdown table")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

// runCase 在内存 sqlite 中加载参考数据并生成报告
func runCase(ctx context.Context, fixture []byte, labelsPath string, req model.FeasibilityJobData, log logger.Logger) (*model.FeasibilityResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	gdb, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	defer db.Close(gdb)
	if err := db.AutoMigrate(gdb); err != nil {
		return nil, err
	}

	f, err := db.ParseFixture(bytes.NewReader(fixture))
	if err != nil {
		return nil, err
	}
	if err := db.LoadFixture(ctx, gdb, f); err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	if labelsPath != "" {
		if err := seedLabels(ctx, gdb, labelsPath); err != nil {
			return nil, err
		}
	}

	eng, err := engine.New(ctx, gdb, config.Default().Engine, log, engine.Options{})
	if err != nil {
		return nil, err
	}
	return eng.Calculator.GenerateFeasibilityTable(ctx, feasibility.RequestFromJobData(req))
}
