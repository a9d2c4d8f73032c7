// Package generate turns raw completion output into validated workspace
// records. Parsing never fails on malformed model output: anything that
// cannot be read as a non-empty JSON array is replaced by a fixed
// fallback list for the content type.
package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nhle/devdash/internal/model"
)

// DescriptionPlaceholder is used when a generated record has no description.
const DescriptionPlaceholder = "No description provided."

// fencePattern matches Markdown code-fence markers (``` or ```json).
var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// Result is the outcome of parsing one generation batch.
type Result struct {
	Records []model.Record

	// UsedFallback is true when the raw text could not be read as a
	// non-empty JSON array and the fixed fallback list was returned.
	UsedFallback bool
}

// ParseGeneratedList parses rawText into validated records of the given
// list content type. The returned slice is never empty and its positions
// are 0..n-1. An error is returned only for a non-list content type.
func ParseGeneratedList(rawText string, ct model.ContentType) ([]model.Record, error) {
	res, err := Parse(rawText, ct)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Parse is ParseGeneratedList that also reports whether the fallback
// list was used.
func Parse(rawText string, ct model.ContentType) (Result, error) {
	var res Result

	switch ct {
	case model.ContentRoadmap:
		items, fb := parseRoadmap(rawText)
		res.UsedFallback = fb
		res.Records = make([]model.Record, len(items))
		for i, it := range items {
			res.Records[i] = it
		}
	case model.ContentTask:
		items, fb := parseTasks(rawText)
		res.UsedFallback = fb
		res.Records = make([]model.Record, len(items))
		for i, it := range items {
			res.Records[i] = it
		}
	case model.ContentDeployment:
		items, fb := parseDeployment(rawText)
		res.UsedFallback = fb
		res.Records = make([]model.Record, len(items))
		for i, it := range items {
			res.Records[i] = it
		}
	default:
		return Result{}, fmt.Errorf("content type %q is not a list type", ct)
	}

	return res, nil
}

// ParseRoadmap parses rawText into roadmap items.
func ParseRoadmap(rawText string) []model.RoadmapItem {
	items, _ := parseRoadmap(rawText)
	return items
}

// ParseTasks parses rawText into tasks.
func ParseTasks(rawText string) []model.TaskItem {
	items, _ := parseTasks(rawText)
	return items
}

// ParseDeployment parses rawText into deployment checklist items.
func ParseDeployment(rawText string) []model.DeploymentItem {
	items, _ := parseDeployment(rawText)
	return items
}

func parseRoadmap(rawText string) ([]model.RoadmapItem, bool) {
	elems, ok := decodeArray(rawText)
	if !ok {
		return roadmapFallback(), true
	}
	items := make([]model.RoadmapItem, len(elems))
	for i, e := range elems {
		items[i] = normalizeRoadmap(e, i)
	}
	return items, false
}

func parseTasks(rawText string) ([]model.TaskItem, bool) {
	elems, ok := decodeArray(rawText)
	if !ok {
		return taskFallback(), true
	}
	items := make([]model.TaskItem, len(elems))
	for i, e := range elems {
		items[i] = normalizeTask(e, i)
	}
	return items, false
}

func parseDeployment(rawText string) ([]model.DeploymentItem, bool) {
	elems, ok := decodeArray(rawText)
	if !ok {
		return deploymentFallback(), true
	}
	items := make([]model.DeploymentItem, len(elems))
	for i, e := range elems {
		items[i] = normalizeDeployment(e, i)
	}
	return items, false
}

// StripFences removes every ``` / ```json marker from s and trims the result.
func StripFences(s string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(s, ""))
}

// decodeArray extracts the JSON array from rawText. It reports false when
// no non-empty array can be read. Elements that are not objects decode
// as empty objects so every field falls back to its default.
func decodeArray(rawText string) ([]element, bool) {
	text := StripFences(rawText)

	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		inner, found := bracketed(text)
		if !found {
			return nil, false
		}
		if err := json.Unmarshal([]byte(inner), &v); err != nil {
			return nil, false
		}
	}

	arr, ok := v.([]interface{})
	if !ok || len(arr) == 0 {
		return nil, false
	}

	elems := make([]element, len(arr))
	for i, raw := range arr {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			obj = map[string]interface{}{}
		}
		elems[i] = element(obj)
	}
	return elems, true
}

// bracketed returns the substring from the first '[' to the last ']'.
func bracketed(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func normalizeRoadmap(e element, i int) model.RoadmapItem {
	phase := model.Phase(e.enum("phase"))
	if !phase.Valid() {
		phase = model.PhaseForIndex(i)
	}

	color, ok := model.PaletteColor(e.str("color"))
	if !ok {
		color = model.ColorForIndex(i)
	}

	milestone, _ := e.boolean("milestone")

	return model.RoadmapItem{
		Title:       e.title(model.ContentRoadmap, i),
		Description: e.description(),
		Status:      model.RoadmapPlanned,
		Phase:       phase,
		Milestone:   milestone,
		Color:       color,
		Position:    i,
	}
}

func normalizeTask(e element, i int) model.TaskItem {
	priority := model.TaskPriority(e.enum("priority"))
	if !priority.Valid() {
		priority = model.TaskPriorityMedium
	}

	return model.TaskItem{
		Title:          e.title(model.ContentTask, i),
		Description:    e.description(),
		Status:         model.TaskTodo,
		Priority:       priority,
		EstimatedHours: e.nonNegative("estimated_hours"),
		DueDate:        e.isoDate("due_date"),
		Tags:           e.stringList("tags"),
		Dependencies:   model.StringList{},
		Position:       i,
	}
}

func normalizeDeployment(e element, i int) model.DeploymentItem {
	category := model.DeploymentCategory(e.enum("category"))
	if !category.Valid() {
		category = model.CategoryGeneral
	}
	platform := model.DeploymentPlatform(e.enum("platform"))
	if !platform.Valid() {
		platform = model.PlatformGeneral
	}
	env := model.Environment(e.enum("environment"))
	if !env.Valid() {
		env = model.EnvProduction
	}
	priority := model.DeploymentPriority(e.enum("priority"))
	if !priority.Valid() {
		priority = model.DeploymentPriorityMedium
	}
	required, ok := e.boolean("is_required")
	if !ok {
		required = true
	}

	return model.DeploymentItem{
		Title:             e.title(model.ContentDeployment, i),
		Description:       e.description(),
		Category:          category,
		Platform:          platform,
		Environment:       env,
		Status:            model.DeploymentTodo,
		Priority:          priority,
		IsRequired:        required,
		VerificationNotes: e.str("verification_notes"),
		HelpfulLinks:      e.links("helpful_links"),
		Position:          i,
	}
}

// element is one decoded object of a generated array.
type element map[string]interface{}

// str returns the trimmed string at key, or "" when absent or not a string.
func (e element) str(key string) string {
	s, ok := e[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// enum returns the lower-cased string at key for enum membership checks.
func (e element) enum(key string) string {
	return strings.ToLower(e.str(key))
}

func (e element) title(ct model.ContentType, i int) string {
	if t := e.str("title"); t != "" {
		return t
	}
	return fmt.Sprintf("%s %d", ct.Label(), i+1)
}

func (e element) description() string {
	if d := e.str("description"); d != "" {
		return d
	}
	return DescriptionPlaceholder
}

func (e element) boolean(key string) (bool, bool) {
	b, ok := e[key].(bool)
	return b, ok
}

// nonNegative returns the number at key, or nil when it is absent, not a
// JSON number, or negative.
func (e element) nonNegative(key string) *float64 {
	f, ok := e[key].(float64)
	if !ok || f < 0 {
		return nil
	}
	return &f
}

// isoDate returns the date at key as YYYY-MM-DD, or nil when it is not a
// parseable date.
func (e element) isoDate(key string) *string {
	s := e.str(key)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d := t.Format("2006-01-02")
			return &d
		}
	}
	return nil
}

// stringList returns the non-empty string entries of the array at key.
func (e element) stringList(key string) model.StringList {
	out := model.StringList{}
	arr, ok := e[key].([]interface{})
	if !ok {
		return out
	}
	for _, v := range arr {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// links returns the well-formed link objects of the array at key. Entries
// without a URL are dropped; a missing title defaults to the URL.
func (e element) links(key string) model.LinkList {
	out := model.LinkList{}
	arr, ok := e[key].([]interface{})
	if !ok {
		return out
	}
	for _, v := range arr {
		obj, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		link := element(obj)
		url := link.str("url")
		if url == "" {
			continue
		}
		title := link.str("title")
		if title == "" {
			title = url
		}
		out = append(out, model.HelpfulLink{
			Title:       title,
			URL:         url,
			Description: link.str("description"),
		})
	}
	return out
}
