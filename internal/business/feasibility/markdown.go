package feasibility

import (
	"fmt"
	"strconv"
	"strings"

	"urbaplan/internal/model"
)

type markdownTexts struct {
	title, zone, undetermined                             string
	label, requirement, project, compliant, level         string
	yes, no, notEvaluated, notRegulated                   string
	score, calculations, constraints, warnings, overrides string
}

var markdownByLang = map[string]markdownTexts{
	model.LangFR: {
		title: "Tableau de faisabilité", zone: "Zone", undetermined: "non déterminée",
		label: "Critère", requirement: "Exigence", project: "Projet", compliant: "Conforme ?", level: "Niveau prioritaire",
		yes: "oui", no: "non", notEvaluated: "non évalué", notRegulated: "non réglementé",
		score: "Score de conformité", calculations: "Indicateurs", constraints: "Contraintes", warnings: "Avertissements", overrides: "Dérogations",
	},
	model.LangDE: {
		title: "Machbarkeitstabelle", zone: "Zone", undetermined: "nicht bestimmt",
		label: "Kriterium", requirement: "Anforderung", project: "Projekt", compliant: "Konform?", level: "Massgebende Ebene",
		yes: "ja", no: "nein", notEvaluated: "nicht geprüft", notRegulated: "nicht geregelt",
		score: "Konformitätsgrad", calculations: "Kennzahlen", constraints: "Einschränkungen", warnings: "Hinweise", overrides: "Übersteuerungen",
	},
	model.LangIT: {
		title: "Tabella di fattibilità", zone: "Zona", undetermined: "non determinata",
		label: "Criterio", requirement: "Requisito", project: "Progetto", compliant: "Conforme?", level: "Livello prioritario",
		yes: "sì", no: "no", notEvaluated: "non valutato", notRegulated: "non regolato",
		score: "Grado di conformità", calculations: "Indicatori", constraints: "Vincoli", warnings: "Avvertenze", overrides: "Deroghe",
	},
	model.LangEN: {
		title: "Feasibility table", zone: "Zone", undetermined: "undetermined",
		label: "Criterion", requirement: "Requirement", project: "Project", compliant: "Compliant?", level: "Priority level",
		yes: "yes", no: "no", notEvaluated: "not evaluated", notRegulated: "not regulated",
		score: "Conformity score", calculations: "Indicators", constraints: "Constraints", warnings: "Warnings", overrides: "Overrides",
	},
}

// RenderMarkdown 渲染报告，每个合规项一行：标签 | 要求 | 项目值 | 是否合规 | 优先层级
func RenderMarkdown(r *model.FeasibilityResult) string {
	if r == nil {
		return ""
	}
	t, ok := markdownByLang[r.Lang]
	if !ok {
		t = markdownByLang[model.LangFR]
	}

	var b strings.Builder

	zone := r.ZoneID
	if r.ZoneStatus == model.ZoneStatusUndetermined {
		zone = strings.TrimSpace(zone + " (" + t.undetermined + ")")
	}
	fmt.Fprintf(&b, "# %s\n\n**%s:** %s\n\n", t.title, t.zone, cell(zone))

	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", t.label, t.requirement, t.project, t.compliant, t.level)
	b.WriteString("|---|---|---|---|---|\n")
	for _, c := range r.Criteria {
		project := ""
		if c.ProjectValue != nil {
			project = c.ProjectValue.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(c.Label), cell(c.Requirement), cell(project), statusText(t, c.Status), cell(c.Level))
	}

	if r.Summary.ConformityScore != nil {
		fmt.Fprintf(&b, "\n**%s:** %s %%\n", t.score, strconv.FormatFloat(*r.Summary.ConformityScore*100, 'f', 0, 64))
	}

	if len(r.Overrides) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t.overrides)
		for _, o := range r.Overrides {
			for _, lost := range o.Overridden {
				fmt.Fprintf(&b, "- %s: %s %s > %s %s\n", o.Field, o.WinningLevel, o.WinningValue, lost.Level, lost.Value)
			}
		}
	}

	if calc := r.Calculations; calc != nil {
		fmt.Fprintf(&b, "\n## %s\n\n", t.calculations)
		writeArea(&b, "SU", calc.SuM2)
		writeArea(&b, "IBUS", calc.IbusM2)
		writeArea(&b, "Emprise", calc.EmpriseM2)
		if calc.NiveauxMaxEst != nil {
			fmt.Fprintf(&b, "- Niveaux: %d\n", *calc.NiveauxMaxEst)
		}
		fmt.Fprintf(&b, "- Reliability: %s\n", calc.Reliability)
	}

	if len(r.ContextNotes) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t.constraints)
		for _, note := range r.ContextNotes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t.warnings)
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

func writeArea(b *strings.Builder, name string, v *float64) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "- %s: %s m²\n", name, strconv.FormatFloat(*v, 'f', -1, 64))
}

func statusText(t markdownTexts, s model.CriterionStatus) string {
	switch s {
	case model.StatusCompliant:
		return t.yes
	case model.StatusNonCompliant:
		return t.no
	case model.StatusNotEvaluated:
		return t.notEvaluated
	default:
		return t.notRegulated
	}
}

// cell 转义表格单元中的竖线与换行
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
