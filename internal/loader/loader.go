// Package loader reads recipe tables from the canonical text format, JSON and
// YAML. Every returned blueprint has been validated.
package loader

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/models"
)

// Precompiled regexes for the text format
var (
	headerRegex = regexp.MustCompile(`Blueprint\s+(\d+)\s*:`)
	recipeRegex = regexp.MustCompile(`Each\s+([a-z]+)\s+robot\s+costs\s+([^.]*)\.`)
	amountRegex = regexp.MustCompile(`^(\d+)\s+([a-z]+)$`)
)

// Record is the structured form of a blueprint used by the JSON and YAML
// formats. Costs maps the resource a robot yields to the resources it costs,
// e.g. {"obsidian": {"ore": 3, "clay": 14}}.
type Record struct {
	ID    int                       `json:"id" yaml:"id"`
	Costs map[string]map[string]int `json:"costs" yaml:"costs"`
}

// ToRecord converts a blueprint to its structured form. Zero costs are omitted.
func ToRecord(bp *models.Blueprint) Record {
	rec := Record{ID: bp.ID, Costs: make(map[string]map[string]int, models.NumProducers)}
	for _, p := range models.AllProducerKinds() {
		costs := make(map[string]int)
		for _, r := range models.AllResourceKinds() {
			if n := bp.Costs[p][r]; n != 0 {
				costs[r.String()] = n
			}
		}
		rec.Costs[p.Yields().String()] = costs
	}
	return rec
}

// Blueprint converts the record back and validates it.
func (r Record) Blueprint() (*models.Blueprint, error) {
	bp := &models.Blueprint{ID: r.ID}
	seen := make(map[models.ProducerKind]bool, len(r.Costs))

	for robot, costs := range r.Costs {
		kind, ok := models.ParseResourceKind(robot)
		if !ok {
			return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("unknown robot %q", robot), map[string]any{"blueprint": r.ID})
		}
		p := models.ProducerFor(kind)
		seen[p] = true
		for res, n := range costs {
			rk, ok := models.ParseResourceKind(res)
			if !ok {
				return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
					fmt.Sprintf("unknown resource %q in %s cost", res, p), map[string]any{"blueprint": r.ID})
			}
			bp.Costs[p][rk] = n
		}
	}

	if err := requireAll(r.ID, seen); err != nil {
		return nil, err
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return bp, nil
}

// LoadBlueprints reads a blueprint file, choosing the format by extension:
// .json, .yaml/.yml, anything else is the text format.
func LoadBlueprints(path string) ([]*models.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeNotFound, "failed to read blueprints", err,
			map[string]any{"path": path})
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseText(strings.NewReader(string(data)))
	}
}

// ParseText parses the canonical text format:
//
//	Blueprint 1: Each ore robot costs 4 ore. Each clay robot costs 2 ore. ...
//
// Sentences may wrap across lines. A cost clause is a list of "<n> <resource>"
// joined by "and", or the word "nothing".
func ParseText(r io.Reader) ([]*models.Blueprint, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprints: %w", err)
	}
	text := string(raw)

	headers := headerRegex.FindAllStringSubmatchIndex(text, -1)
	if len(headers) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return nil, parseError(1, "no blueprint header found")
	}
	if lead := strings.TrimSpace(text[:headers[0][0]]); lead != "" {
		return nil, parseError(1, fmt.Sprintf("unexpected text %q before first blueprint", lead))
	}

	out := make([]*models.Blueprint, 0, len(headers))
	for i, h := range headers {
		line := strings.Count(text[:h[0]], "\n") + 1
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		id, err := strconv.Atoi(text[h[2]:h[3]])
		if err != nil {
			return nil, parseError(line, fmt.Sprintf("bad blueprint id %q", text[h[2]:h[3]]))
		}

		bp, err := parseRecipes(id, normalize(text[h[1]:end]))
		if err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("blueprint %d", id), err, map[string]any{"line": line})
		}
		out = append(out, bp)
	}
	return out, nil
}

func parseRecipes(id int, body string) (*models.Blueprint, error) {
	bp := &models.Blueprint{ID: id}
	seen := make(map[models.ProducerKind]bool, models.NumProducers)

	matches := recipeRegex.FindAllStringSubmatchIndex(body, -1)
	consumed := 0
	for _, m := range matches {
		if gap := strings.TrimSpace(body[consumed:m[0]]); gap != "" {
			return nil, fmt.Errorf("unexpected text %q", gap)
		}
		consumed = m[1]

		kind, ok := models.ParseResourceKind(body[m[2]:m[3]])
		if !ok {
			return nil, fmt.Errorf("unknown robot %q", body[m[2]:m[3]])
		}
		p := models.ProducerFor(kind)
		if seen[p] {
			return nil, fmt.Errorf("%s defined twice", p)
		}
		seen[p] = true

		costs, err := parseCosts(body[m[4]:m[5]])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		bp.Costs[p] = costs
	}
	if rest := strings.TrimSpace(body[consumed:]); rest != "" {
		return nil, fmt.Errorf("unexpected text %q", rest)
	}

	if err := requireAll(id, seen); err != nil {
		return nil, err
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return bp, nil
}

func parseCosts(clause string) (models.Costs, error) {
	var costs models.Costs
	clause = strings.TrimSpace(clause)
	if clause == "nothing" {
		return costs, nil
	}

	for _, part := range strings.Split(clause, " and ") {
		m := amountRegex.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return costs, fmt.Errorf("bad cost %q", part)
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return costs, fmt.Errorf("bad amount %q: %w", m[1], err)
		}
		r, ok := models.ParseResourceKind(m[2])
		if !ok {
			return costs, fmt.Errorf("unknown resource %q", m[2])
		}
		costs[r] += n
	}
	return costs, nil
}

// ParseJSON parses an array of records:
//
//	[{"id": 1, "costs": {"ore": {"ore": 4}, "clay": {"ore": 2}, ...}}]
func ParseJSON(data []byte) ([]*models.Blueprint, error) {
	if !gjson.ValidBytes(data) {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "invalid JSON blueprint list")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "blueprint list must be a JSON array")
	}

	var out []*models.Blueprint
	var failure error
	root.ForEach(func(idx, value gjson.Result) bool {
		rec, err := jsonRecord(value)
		if err == nil {
			var bp *models.Blueprint
			if bp, err = rec.Blueprint(); err == nil {
				out = append(out, bp)
				return true
			}
		}
		failure = cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("blueprint at index %d", idx.Int()), err, map[string]any{"index": idx.Int()})
		return false
	})
	if failure != nil {
		return nil, failure
	}
	return out, nil
}

func jsonRecord(value gjson.Result) (Record, error) {
	rec := Record{Costs: make(map[string]map[string]int)}
	id := value.Get("id")
	if !id.Exists() {
		return rec, fmt.Errorf("missing id")
	}
	n, err := wholeNumber(id)
	if err != nil {
		return rec, fmt.Errorf("id: %w", err)
	}
	rec.ID = n

	var failure error
	value.Get("costs").ForEach(func(robot, costs gjson.Result) bool {
		m := make(map[string]int)
		costs.ForEach(func(res, amount gjson.Result) bool {
			n, err := wholeNumber(amount)
			if err != nil {
				failure = fmt.Errorf("%s robot %s cost: %w", robot.String(), res.String(), err)
				return false
			}
			m[res.String()] = n
			return true
		})
		rec.Costs[robot.String()] = m
		return failure == nil
	})
	return rec, failure
}

// wholeNumber accepts only JSON numbers without a fractional part.
func wholeNumber(r gjson.Result) (int, error) {
	if r.Type != gjson.Number {
		return 0, fmt.Errorf("%s is not a number", r.Raw)
	}
	if r.Num != math.Trunc(r.Num) || math.Abs(r.Num) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not a whole number", r.Raw)
	}
	return int(r.Num), nil
}

// ParseYAML parses a YAML sequence of records.
func ParseYAML(data []byte) ([]*models.Blueprint, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "invalid YAML blueprint list", err)
	}

	out := make([]*models.Blueprint, 0, len(records))
	for i, rec := range records {
		bp, err := rec.Blueprint()
		if err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("blueprint at index %d", i), err, map[string]any{"index": i})
		}
		out = append(out, bp)
	}
	return out, nil
}

// requireAll reports the missing recipes, if any.
func requireAll(id int, seen map[models.ProducerKind]bool) error {
	var missing []string
	for _, p := range models.AllProducerKinds() {
		if !seen[p] {
			missing = append(missing, p.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
		fmt.Sprintf("missing recipe for %s", strings.Join(missing, ", ")),
		map[string]any{"blueprint": id})
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseError(line int, msg string) error {
	return cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest, msg, map[string]any{"line": line})
}
