package gks

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"civic/sdk/models"
	"civic/sdk/models/constants/status"
	errorsDto "civic/sdk/models/dtos/errors"
)

/*
	GKS-JSON export of assertions : one statement object per accepted
	assertion over a simple molecular profile, in the shape of the
	GA4GH variant annotation statements. Like the VCF writer, this one
	consumes resolved record views only and reports per-record
	failures instead of aborting the batch.
*/

const (
	methodId  = "civic.method:2019"
	methodUrl = "https://genomemedicine.biomedcentral.com/articles/10.1186/s13073-019-0687-x"

	ampAscoCapSystem    = "AMP/ASCO/CAP (PMID: 27993330)"
	evidenceLevelSystem = "https://civic.readthedocs.io/en/latest/model/evidence/level.html"
)

// significance -> GKS predicate, per assertion type. A significance
// outside this table cannot be represented as a statement.
var significanceToPredicate = map[string]string{
	"SENSITIVITYRESPONSE": "predictsSensitivityTo",
	"RESISTANCE":          "predictsResistanceTo",
	"POOR_OUTCOME":        "associatedWithWorseOutcomeFor",
	"BETTER_OUTCOME":      "associatedWithBetterOutcomeFor",
	"POSITIVE":            "isDiagnosticInclusionCriterionFor",
	"NEGATIVE":            "isDiagnosticExclusionCriterionFor",
}

var assertionTypeToStatement = map[string]string{
	"PREDICTIVE": "VariantTherapeuticResponseStudyStatement",
	"DIAGNOSTIC": "VariantDiagnosticStudyStatement",
	"PROGNOSTIC": "VariantPrognosticStudyStatement",
}

var evidenceLevelToName = map[string]string{
	"A": "Validated association",
	"B": "Clinical evidence",
	"C": "Case study",
	"D": "Preclinical evidence",
	"E": "Inferential association",
}

var ampLevelRegex = regexp.MustCompile(`^TIER_([IV]+)(?:_LEVEL_([A-D]))?$`)

// Concept is the minimal mappable-concept shape shared by genes,
// diseases, therapies and codings.
type Concept struct {
	Id     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"code,omitempty"`
	System string `json:"system,omitempty"`
}

type TherapyGroup struct {
	GroupType string    `json:"groupType,omitempty"`
	Therapies []Concept `json:"therapies,omitempty"`
}

type Proposition struct {
	Type                  string        `json:"type"`
	Predicate             string        `json:"predicate"`
	SubjectVariant        Concept       `json:"subjectVariant"`
	GeneContextQualifier  *Concept      `json:"geneContextQualifier,omitempty"`
	AlleleOriginQualifier *Concept      `json:"alleleOriginQualifier,omitempty"`
	ObjectCondition       *Concept      `json:"objectCondition,omitempty"`
	ObjectTherapeutic     *Concept      `json:"objectTherapeutic,omitempty"`
	TherapyGroup          *TherapyGroup `json:"therapyGroup,omitempty"`
}

type EvidenceItem struct {
	Id          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Direction   string    `json:"direction,omitempty"`
	Strength    *Concept  `json:"strength,omitempty"`
	ReportedIn  []Concept `json:"reportedIn,omitempty"`
}

type EvidenceLine struct {
	DirectionOfEvidenceProvided string         `json:"directionOfEvidenceProvided"`
	HasEvidenceItems            []EvidenceItem `json:"hasEvidenceItems"`
}

type Contribution struct {
	ActivityType string  `json:"activityType"`
	Date         string  `json:"date,omitempty"`
	Contributor  Concept `json:"contributor"`
}

// Statement is one exported assertion.
type Statement struct {
	Id               string         `json:"id"`
	Type             string         `json:"type"`
	Description      string         `json:"description,omitempty"`
	Direction        string         `json:"direction,omitempty"`
	Proposition      Proposition    `json:"proposition"`
	Classification   *Concept       `json:"classification,omitempty"`
	Strength         *Concept       `json:"strength,omitempty"`
	SpecifiedBy      Concept        `json:"specifiedBy"`
	Contributions    []Contribution `json:"contributions,omitempty"`
	HasEvidenceLines []EvidenceLine `json:"hasEvidenceLines,omitempty"`
}

// AssertionError records why one assertion could not be exported.
type AssertionError struct {
	AssertionId int    `json:"assertion_id"`
	Message     string `json:"message"`
}

// AnnotatedAssertion is the fully resolved input of the statement
// builder.
type AnnotatedAssertion struct {
	Assertion    *models.Assertion
	Profile      *models.MolecularProfile
	Variant      *models.GeneVariant
	Gene         *models.Gene
	Evidence     []*models.Evidence
	Approval     *models.Approval
	Organization *models.Organization
}

// IsValidForGks reports whether an assertion can be represented as a
// GKS statement : an accepted diagnostic, prognostic or predictive
// assertion over a simple molecular profile, with a mappable
// significance.
func IsValidForGks(a *models.Assertion, mp *models.MolecularProfile) error {
	if _, ok := assertionTypeToStatement[strings.ToUpper(a.AssertionType)]; !ok {
		return errorsDto.NewValidation("assertion", a.Id, fmt.Sprintf("unsupported assertion type %s", a.AssertionType))
	}
	if a.Status != status.Accepted {
		return errorsDto.NewValidation("assertion", a.Id, fmt.Sprintf("status %s is not accepted", a.Status))
	}
	if mp == nil || !mp.IsSimple() {
		return errorsDto.NewValidation("assertion", a.Id, "molecular profile is not simple")
	}
	if _, ok := significanceToPredicate[strings.ToUpper(a.Significance)]; !ok {
		return errorsDto.NewValidation("assertion", a.Id, fmt.Sprintf("significance %s has no predicate", a.Significance))
	}
	if strings.ToUpper(a.AssertionType) == "PREDICTIVE" && len(a.Therapies) == 0 {
		return errorsDto.NewValidation("assertion", a.Id, "predictive assertion without therapies")
	}
	if a.Disease == nil {
		return errorsDto.NewValidation("assertion", a.Id, "assertion without a disease")
	}
	return nil
}

// NewStatement builds the statement for one annotated assertion. The
// validity check runs first, so invalid inputs come back as
// ValidationError.
func NewStatement(annotated AnnotatedAssertion) (Statement, error) {
	a := annotated.Assertion
	if err := IsValidForGks(a, annotated.Profile); err != nil {
		return Statement{}, err
	}

	classification, strength := classificationAndStrength(a.AmpLevel)

	statement := Statement{
		Id:               fmt.Sprintf("civic.aid:%d", a.Id),
		Type:             assertionTypeToStatement[strings.ToUpper(a.AssertionType)],
		Description:      a.Description,
		Direction:        direction(a.AssertionDirection),
		Proposition:      proposition(annotated),
		Classification:   classification,
		Strength:         strength,
		SpecifiedBy:      Concept{Id: methodId, Name: "CIViC Curation SOP", System: methodUrl},
		HasEvidenceLines: evidenceLines(annotated.Evidence),
	}

	if annotated.Approval != nil && annotated.Organization != nil {
		statement.Contributions = []Contribution{{
			ActivityType: "endorsement.last_reviewed",
			Date:         time.Now().Format("2006-01-02"),
			Contributor: Concept{
				Id:   fmt.Sprintf("civic.organization:%d", annotated.Organization.Id),
				Name: annotated.Organization.Name,
			},
		}}
	}
	return statement, nil
}

func proposition(annotated AnnotatedAssertion) Proposition {
	a := annotated.Assertion

	p := Proposition{
		Predicate: significanceToPredicate[strings.ToUpper(a.Significance)],
		SubjectVariant: Concept{
			Id:   fmt.Sprintf("civic.mpid:%d", annotated.Profile.Id),
			Name: annotated.Profile.Name,
		},
	}
	if annotated.Gene != nil {
		p.GeneContextQualifier = &Concept{
			Id:   fmt.Sprintf("civic.gid:%d", annotated.Gene.Id),
			Name: annotated.Gene.Name,
		}
	}
	if a.VariantOrigin != "" {
		p.AlleleOriginQualifier = &Concept{Name: a.VariantOrigin}
	}

	disease := &Concept{
		Id:     fmt.Sprintf("civic.did:%d", a.Disease.Id),
		Name:   a.Disease.Name,
		Code:   a.Disease.Doid,
		System: "DOID",
	}

	if strings.ToUpper(a.AssertionType) == "PREDICTIVE" {
		p.Type = "VariantTherapeuticResponseProposition"
		if len(a.Therapies) == 1 {
			p.ObjectTherapeutic = therapyConcept(a.Therapies[0])
		} else {
			group := &TherapyGroup{GroupType: groupType(a.TherapyInteractionType)}
			for i := range a.Therapies {
				group.Therapies = append(group.Therapies, *therapyConcept(a.Therapies[i]))
			}
			p.TherapyGroup = group
		}
		// predictive statements carry the disease as a condition
		// qualifier rather than the object
		p.ObjectCondition = disease
	} else {
		if strings.ToUpper(a.AssertionType) == "PROGNOSTIC" {
			p.Type = "VariantPrognosticProposition"
		} else {
			p.Type = "VariantDiagnosticProposition"
		}
		p.ObjectCondition = disease
	}
	return p
}

func therapyConcept(t models.Therapy) *Concept {
	return &Concept{
		Id:     fmt.Sprintf("civic.tid:%d", t.Id),
		Name:   t.Name,
		Code:   t.NcitId,
		System: "NCIt",
	}
}

func groupType(interactionType string) string {
	switch strings.ToUpper(interactionType) {
	case "SUBSTITUTES":
		return "TherapeuticSubstituteGroup"
	default:
		return "CombinationTherapy"
	}
}

func direction(recordDirection string) string {
	switch strings.ToUpper(recordDirection) {
	case "SUPPORTS":
		return "supports"
	case "DOES_NOT_SUPPORT":
		return "disputes"
	default:
		return ""
	}
}

func classificationAndStrength(ampLevel string) (*Concept, *Concept) {
	match := ampLevelRegex.FindStringSubmatch(strings.ToUpper(ampLevel))
	if match == nil {
		return nil, nil
	}

	classification := &Concept{
		Code:   fmt.Sprintf("Tier %s", match[1]),
		System: ampAscoCapSystem,
	}
	if match[2] == "" {
		return classification, nil
	}
	strength := &Concept{
		Name:   evidenceLevelToName[match[2]],
		Code:   fmt.Sprintf("Level %s", match[2]),
		System: ampAscoCapSystem,
	}
	return classification, strength
}

func evidenceLines(evidence []*models.Evidence) []EvidenceLine {
	var lines []EvidenceLine
	for _, e := range evidence {
		item := EvidenceItem{
			Id:          fmt.Sprintf("civic.eid:%d", e.Id),
			Description: e.Description,
			Direction:   direction(e.EvidenceDirection),
		}
		if name, ok := evidenceLevelToName[e.EvidenceLevel]; ok {
			item.Strength = &Concept{
				Name:   name,
				Code:   e.EvidenceLevel,
				System: evidenceLevelSystem,
			}
		}
		if e.Source != nil {
			item.ReportedIn = append(item.ReportedIn, Concept{
				Id:     fmt.Sprintf("civic.sid:%d", e.Source.Id),
				Name:   e.Source.Citation,
				Code:   e.Source.CitationId,
				System: e.Source.SourceType,
			})
		}
		lines = append(lines, EvidenceLine{
			DirectionOfEvidenceProvided: "supports",
			HasEvidenceItems:            []EvidenceItem{item},
		})
	}
	return lines
}

// Document is the top-level shape of one export file.
type Document struct {
	GksRecords  []Statement      `json:"gks_records"`
	Errors      []AssertionError `json:"errors,omitempty"`
	GeneratedAt string           `json:"generated_at"`
}

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write builds statements for the annotated assertions best-effort
// and renders the document : failures land in the error list, never
// abort the file.
func (w *Writer) Write(out io.Writer, assertions []AnnotatedAssertion) ([]AssertionError, error) {
	document := Document{
		GksRecords:  []Statement{},
		GeneratedAt: time.Now().Format("2006-01-02"),
	}
	for _, annotated := range assertions {
		statement, buildErr := NewStatement(annotated)
		if buildErr != nil {
			document.Errors = append(document.Errors, AssertionError{
				AssertionId: annotated.Assertion.Id,
				Message:     buildErr.Error(),
			})
			continue
		}
		document.GksRecords = append(document.GksRecords, statement)
	}

	encoded, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return document.Errors, err
	}
	if _, err := out.Write(append(encoded, '\n')); err != nil {
		return document.Errors, err
	}
	return document.Errors, nil
}
