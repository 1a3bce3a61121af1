// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/review-engine/pkg/types"
)

// screeningPromptTmpl is the title/abstract screening prompt. It frames the
// task for high recall, asks for the per-criterion reasoning to stay
// internal, and pins the JSON reply shape that ParseVerdict reads.
var screeningPromptTmpl = template.Must(template.New("screening").Funcs(template.FuncMap{
	"bullets": bullets,
}).Parse(`You are a knowledgeable AI assistant tasked with high-sensitivity title and abstract screening of a research article for a systematic review. Follow a step-by-step evaluation focusing on not missing any potentially relevant study.

Synopsis/PICO: {{.Synopsis}}

Inclusion Criteria:
{{bullets .Inclusion}}

Exclusion Criteria:
{{bullets .Exclusion}}

Study Title: {{.Title}}
Study Abstract: {{.Abstract}}

Instructions:
1. Identify PICO elements and type record from the title and abstract: determine the studied population (animals/population), intervention/exposure and type of record (review, systematic review, original research article, case report).
2. Check each inclusion criterion against the information: for each inclusion criterion, assess whether the abstract suggests the study fulfills it. (Treat unspecified details as uncertain rather than negative.)
3. Check each exclusion criterion: assess if any exclusion criterion is clearly met by the study.
4. Perform the above reasoning internally - do not output these steps.

Decision logic (high recall focus):
- If all inclusion criteria are met and no exclusion criteria apply, Include the study.
- If any inclusion criterion is clearly unmet or any exclusion criterion is definitely met, decide Exclude
- If there is any uncertainty (e.g. some PICO elements are unclear from the abstract) and no clear exclusion, mark as Maybe rather than risk wrongful exclusion.

When in doubt, err on the side of inclusion (include or maybe).

Output (JSON only): Return a single JSON object with keys:
- decision: "include" | "exclude" | "maybe"
- rationale: brief reason (<=12 words)
- inclusion_evaluation: array of { "criterion": string, "status": "met"|"unclear"|"unmet" }
- exclusion_evaluation: array of { "criterion": string, "status": "met"|"unclear"|"unmet" }
No other text should be produced outside the JSON.

Example format:
{
  "decision": "maybe",
  "rationale": "Population matches, but intervention details unclear from abstract",
  "inclusion_evaluation": [ { "criterion": "population: adults with T2D", "status": "met" } ],
  "exclusion_evaluation": [ { "criterion": "non-human study", "status": "unmet" } ]
}

Now, based on the above criteria and the article's title/abstract, output the JSON decision.`))

// Placeholders for missing prompt inputs.
const (
	noSynopsis = "(not provided)"
	noCriteria = "- (none provided)"
	noTitle    = "(no title)"
	noAbstract = "(no abstract)"
)

type promptData struct {
	Synopsis  string
	Inclusion []string
	Exclusion []string
	Title     string
	Abstract  string
}

func bullets(items []string) string {
	if len(items) == 0 {
		return noCriteria
	}
	lines := make([]string, len(items))
	for i, c := range items {
		lines[i] = "- " + c
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt renders the screening prompt for one article. The output
// depends only on its inputs.
func BuildPrompt(article types.ArticleInput, pico types.PICOCriteria) (string, error) {
	data := promptData{
		Synopsis:  strings.TrimSpace(pico.Question),
		Inclusion: NormalizeCriteria(pico.Inclusion),
		Exclusion: NormalizeCriteria(pico.Exclusion),
		Title:     article.Title,
		Abstract:  article.Abstract,
	}
	if data.Synopsis == "" {
		data.Synopsis = noSynopsis
	}
	if data.Title == "" {
		data.Title = noTitle
	}
	if data.Abstract == "" {
		data.Abstract = noAbstract
	}

	var buf bytes.Buffer
	if err := screeningPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
