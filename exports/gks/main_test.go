package gks

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"civic/sdk/models"
	errorsDto "civic/sdk/models/dtos/errors"
)

func predictiveAssertion() *models.Assertion {
	return &models.Assertion{
		Id:                 300,
		Name:               "AID300",
		Description:        "BRAF V600E confers sensitivity to vemurafenib",
		AssertionType:      "PREDICTIVE",
		AssertionDirection: "SUPPORTS",
		Significance:       "SENSITIVITYRESPONSE",
		Status:             "accepted",
		AmpLevel:           "TIER_I_LEVEL_A",
		VariantOrigin:      "SOMATIC",
		MolecularProfileId: 100,
		Disease:            &models.Disease{Id: 7, Name: "Melanoma", Doid: "1909"},
		Therapies:          []models.Therapy{{Id: 4, Name: "Vemurafenib", NcitId: "C64768"}},
	}
}

func simpleProfile() *models.MolecularProfile {
	return &models.MolecularProfile{Id: 100, Name: "BRAF V600E", VariantIds: []int{10}}
}

func annotatedAssertion() AnnotatedAssertion {
	return AnnotatedAssertion{
		Assertion: predictiveAssertion(),
		Profile:   simpleProfile(),
		Gene:      &models.Gene{Id: 1, Name: "BRAF"},
		Evidence: []*models.Evidence{{
			Id:                200,
			EvidenceDirection: "SUPPORTS",
			EvidenceLevel:     "B",
			Source:            &models.Source{Id: 50, Citation: "Chapman et al., 2011", CitationId: "21639808", SourceType: "PUBMED"},
		}},
		Approval:     &models.Approval{Id: 1, AssertionId: 300, OrganizationId: 9, ReadyForClinvarSubmission: true},
		Organization: &models.Organization{Id: 9, Name: "CIViC ClinVar Submission Group"},
	}
}

func TestIsValidForGks(t *testing.T) {
	t.Run("an accepted predictive assertion over a simple profile is valid", func(t *testing.T) {
		assert.NoError(t, IsValidForGks(predictiveAssertion(), simpleProfile()))
	})

	t.Run("non-accepted assertions are rejected", func(t *testing.T) {
		a := predictiveAssertion()
		a.Status = "submitted"
		assert.True(t, errorsDto.IsValidation(IsValidForGks(a, simpleProfile())))
	})

	t.Run("complex molecular profiles are rejected", func(t *testing.T) {
		mp := simpleProfile()
		mp.VariantIds = []int{10, 11}
		assert.True(t, errorsDto.IsValidation(IsValidForGks(predictiveAssertion(), mp)))
	})

	t.Run("unsupported assertion types are rejected", func(t *testing.T) {
		a := predictiveAssertion()
		a.AssertionType = "ONCOGENIC"
		assert.True(t, errorsDto.IsValidation(IsValidForGks(a, simpleProfile())))
	})

	t.Run("unmappable significances are rejected", func(t *testing.T) {
		a := predictiveAssertion()
		a.Significance = "NA"
		assert.True(t, errorsDto.IsValidation(IsValidForGks(a, simpleProfile())))
	})

	t.Run("predictive assertions need at least one therapy", func(t *testing.T) {
		a := predictiveAssertion()
		a.Therapies = nil
		assert.True(t, errorsDto.IsValidation(IsValidForGks(a, simpleProfile())))
	})
}

func TestNewStatement(t *testing.T) {
	statement, err := NewStatement(annotatedAssertion())
	assert.NoError(t, err)

	assert.Equal(t, "civic.aid:300", statement.Id)
	assert.Equal(t, "VariantTherapeuticResponseStudyStatement", statement.Type)
	assert.Equal(t, "supports", statement.Direction)

	t.Run("proposition carries profile, gene and therapy", func(t *testing.T) {
		assert.Equal(t, "predictsSensitivityTo", statement.Proposition.Predicate)
		assert.Equal(t, "civic.mpid:100", statement.Proposition.SubjectVariant.Id)
		assert.Equal(t, "civic.gid:1", statement.Proposition.GeneContextQualifier.Id)
		assert.Equal(t, "civic.tid:4", statement.Proposition.ObjectTherapeutic.Id)
		assert.Equal(t, "1909", statement.Proposition.ObjectCondition.Code)
	})

	t.Run("amp level splits into classification and strength", func(t *testing.T) {
		assert.Equal(t, "Tier I", statement.Classification.Code)
		assert.Equal(t, "Level A", statement.Strength.Code)
		assert.Equal(t, "Validated association", statement.Strength.Name)
	})

	t.Run("evidence items become evidence lines", func(t *testing.T) {
		assert.Len(t, statement.HasEvidenceLines, 1)
		item := statement.HasEvidenceLines[0].HasEvidenceItems[0]
		assert.Equal(t, "civic.eid:200", item.Id)
		assert.Equal(t, "Clinical evidence", item.Strength.Name)
		assert.Equal(t, "civic.sid:50", item.ReportedIn[0].Id)
	})

	t.Run("the approval surfaces as a contribution", func(t *testing.T) {
		assert.Len(t, statement.Contributions, 1)
		assert.Equal(t, "civic.organization:9", statement.Contributions[0].Contributor.Id)
	})

	t.Run("multiple therapies group instead of flattening", func(t *testing.T) {
		annotated := annotatedAssertion()
		annotated.Assertion.Therapies = append(annotated.Assertion.Therapies,
			models.Therapy{Id: 5, Name: "Cobimetinib"})
		annotated.Assertion.TherapyInteractionType = "COMBINATION"

		grouped, err := NewStatement(annotated)
		assert.NoError(t, err)
		assert.Nil(t, grouped.Proposition.ObjectTherapeutic)
		assert.Equal(t, "CombinationTherapy", grouped.Proposition.TherapyGroup.GroupType)
		assert.Len(t, grouped.Proposition.TherapyGroup.Therapies, 2)
	})
}

func TestWriterIsBestEffort(t *testing.T) {
	invalid := annotatedAssertion()
	invalid.Assertion.Id = 301
	invalid.Assertion.Status = "submitted"

	var out bytes.Buffer
	exportErrors, err := NewWriter().Write(&out, []AnnotatedAssertion{annotatedAssertion(), invalid})
	assert.NoError(t, err)
	assert.Len(t, exportErrors, 1)
	assert.Equal(t, 301, exportErrors[0].AssertionId)

	var document Document
	assert.NoError(t, json.Unmarshal(out.Bytes(), &document))
	assert.Len(t, document.GksRecords, 1)
	assert.Equal(t, "civic.aid:300", document.GksRecords[0].Id)
	assert.Len(t, document.Errors, 1)
	assert.NotEmpty(t, document.GeneratedAt)
}
